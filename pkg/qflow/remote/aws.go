package remote

import (
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"
)

// AwsTargetConfig is one named AWS target's connection configuration
// (region/profile, mirroring the teacher's AwsTarget).
type AwsTargetConfig struct {
	Region  string
	Profile string
}

// awsClientPool caches one session and one client per target name so
// repeated resolves against the same target reuse a live connection
// (grounded on op_aws.go's AwsClientPool: a target-keyed pool of
// sessions and mockable API-interface clients, guarded by a mutex).
type awsClientPool struct {
	mu       sync.RWMutex
	configs  map[string]AwsTargetConfig
	sessions map[string]*session.Session

	secretsClients map[string]secretsmanageriface.SecretsManagerAPI
	paramClients   map[string]ssmiface.SSMAPI
}

func newAwsClientPool(configs map[string]AwsTargetConfig) *awsClientPool {
	return &awsClientPool{
		configs:        configs,
		sessions:       make(map[string]*session.Session),
		secretsClients: make(map[string]secretsmanageriface.SecretsManagerAPI),
		paramClients:   make(map[string]ssmiface.SSMAPI),
	}
}

func (p *awsClientPool) session(target string) (*session.Session, error) {
	p.mu.RLock()
	if sess, ok := p.sessions[target]; ok {
		p.mu.RUnlock()
		return sess, nil
	}
	p.mu.RUnlock()

	cfg, ok := p.configs[target]
	if !ok {
		return nil, fmt.Errorf("remote/aws: unknown target %q", target)
	}

	opts := session.Options{SharedConfigState: session.SharedConfigEnable}
	if cfg.Region != "" {
		opts.Config.Region = aws.String(cfg.Region)
	}
	if cfg.Profile != "" {
		opts.Profile = cfg.Profile
	}
	sess, err := session.NewSessionWithOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("remote/aws: create session for target %q: %w", target, err)
	}

	p.mu.Lock()
	p.sessions[target] = sess
	p.mu.Unlock()
	return sess, nil
}

func (p *awsClientPool) secretsManager(target string) (secretsmanageriface.SecretsManagerAPI, error) {
	p.mu.RLock()
	if c, ok := p.secretsClients[target]; ok {
		p.mu.RUnlock()
		return c, nil
	}
	p.mu.RUnlock()

	sess, err := p.session(target)
	if err != nil {
		return nil, err
	}
	client := secretsmanager.New(sess)

	p.mu.Lock()
	p.secretsClients[target] = client
	p.mu.Unlock()
	return client, nil
}

func (p *awsClientPool) parameterStore(target string) (ssmiface.SSMAPI, error) {
	p.mu.RLock()
	if c, ok := p.paramClients[target]; ok {
		p.mu.RUnlock()
		return c, nil
	}
	p.mu.RUnlock()

	sess, err := p.session(target)
	if err != nil {
		return nil, err
	}
	client := ssm.New(sess)

	p.mu.Lock()
	p.paramClients[target] = client
	p.mu.Unlock()
	return client, nil
}

// SecretsManagerResolver resolves keys from AWS Secrets Manager.
type SecretsManagerResolver struct {
	pool  *awsClientPool
	cache sync.Map // "target\x00secret" -> string
}

// NewSecretsManagerResolver builds a resolver over the given named
// targets' AWS configuration.
func NewSecretsManagerResolver(configs map[string]AwsTargetConfig) *SecretsManagerResolver {
	return &SecretsManagerResolver{pool: newAwsClientPool(configs)}
}

func cacheKey(target, key string) string { return target + "\x00" + key }

// Resolve fetches secret from Secrets Manager, caching the result per
// target+secret for the life of the resolver (mirrors op_aws.go's
// awsSecretsCache, scoped per target instead of globally).
func (r *SecretsManagerResolver) Resolve(target, secret string) (string, error) {
	if v, ok := r.cache.Load(cacheKey(target, secret)); ok {
		return v.(string), nil
	}

	client, err := r.pool.secretsManager(target)
	if err != nil {
		return "", err
	}

	out, err := client.GetSecretValue(&secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secret),
	})
	if err != nil {
		return "", fmt.Errorf("remote/aws: get secret %q from target %q: %w", secret, target, err)
	}

	val := aws.StringValue(out.SecretString)
	r.cache.Store(cacheKey(target, secret), val)
	return val, nil
}

// SSMParameterResolver resolves keys from AWS SSM Parameter Store.
type SSMParameterResolver struct {
	pool  *awsClientPool
	cache sync.Map
}

// NewSSMParameterResolver builds a resolver over the given named
// targets' AWS configuration.
func NewSSMParameterResolver(configs map[string]AwsTargetConfig) *SSMParameterResolver {
	return &SSMParameterResolver{pool: newAwsClientPool(configs)}
}

// Resolve fetches param (with decryption) from SSM Parameter Store.
func (r *SSMParameterResolver) Resolve(target, param string) (string, error) {
	if v, ok := r.cache.Load(cacheKey(target, param)); ok {
		return v.(string), nil
	}

	client, err := r.pool.parameterStore(target)
	if err != nil {
		return "", err
	}

	out, err := client.GetParameter(&ssm.GetParameterInput{
		Name:           aws.String(param),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("remote/aws: get parameter %q from target %q: %w", param, target, err)
	}

	val := aws.StringValue(out.Parameter.Value)
	r.cache.Store(cacheKey(target, param), val)
	return val, nil
}
