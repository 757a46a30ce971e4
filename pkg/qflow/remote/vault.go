package remote

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/cloudfoundry-community/vaultkv"
)

// VaultTargetConfig is one named Vault target's connection
// configuration.
type VaultTargetConfig struct {
	Addr      string
	Token     string
	Namespace string
	Insecure  bool
}

// VaultResolver resolves keys from HashiCorp Vault's KV store, caching
// fetched secrets per target (mirroring op_vault.go's globalKV client
// and vaultSecretCache map, scoped per target instead of a single
// global client since qflow targets are named rather than singular).
type VaultResolver struct {
	mu      sync.RWMutex
	configs map[string]VaultTargetConfig
	clients map[string]*vaultkv.KV

	cacheMu sync.Mutex
	cache   map[string]map[string]interface{} // target -> secret path -> kv
}

// NewVaultResolver builds a resolver over the given named targets'
// Vault configuration.
func NewVaultResolver(configs map[string]VaultTargetConfig) *VaultResolver {
	return &VaultResolver{
		configs: configs,
		clients: make(map[string]*vaultkv.KV),
		cache:   make(map[string]map[string]interface{}),
	}
}

func (r *VaultResolver) client(target string) (*vaultkv.KV, error) {
	r.mu.RLock()
	if c, ok := r.clients[target]; ok {
		r.mu.RUnlock()
		return c, nil
	}
	r.mu.RUnlock()

	cfg, ok := r.configs[target]
	if !ok {
		return nil, fmt.Errorf("remote/vault: unknown target %q", target)
	}
	if cfg.Addr == "" || cfg.Token == "" {
		return nil, fmt.Errorf("remote/vault: target %q missing addr/token", target)
	}

	parsed, err := url.Parse(cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("remote/vault: parse addr for target %q: %w", target, err)
	}
	if parsed.Port() == "" {
		if parsed.Scheme == "http" {
			parsed.Host += ":80"
		} else {
			parsed.Host += ":443"
		}
	}

	client := &vaultkv.Client{
		AuthToken: cfg.Token,
		VaultURL:  parsed,
		Namespace: cfg.Namespace,
	}
	kv := client.NewKV()

	r.mu.Lock()
	r.clients[target] = kv
	r.mu.Unlock()
	return kv, nil
}

// Resolve fetches the subkey at secret:subkey (or just secret's sole
// value when subkey is empty) from the target's Vault KV store.
func (r *VaultResolver) Resolve(target, key string) (string, error) {
	secretPath, subkey := splitVaultKey(key)

	r.cacheMu.Lock()
	if bucket, ok := r.cache[target]; ok {
		if v, ok := bucket[secretPath]; ok {
			r.cacheMu.Unlock()
			return extractVaultSubkey(v, secretPath, subkey)
		}
	}
	r.cacheMu.Unlock()

	kv, err := r.client(target)
	if err != nil {
		return "", err
	}

	ret := map[string]interface{}{}
	if _, err := kv.Get(secretPath, &ret, nil); err != nil {
		if isVaultNotFound(err) {
			return "", fmt.Errorf("remote/vault: secret %q not found at target %q: %w", secretPath, target, err)
		}
		return "", fmt.Errorf("remote/vault: fetch secret %q from target %q: %w", secretPath, target, err)
	}

	r.cacheMu.Lock()
	if r.cache[target] == nil {
		r.cache[target] = make(map[string]interface{})
	}
	r.cache[target][secretPath] = ret
	r.cacheMu.Unlock()

	return extractVaultSubkey(ret, secretPath, subkey)
}

// splitVaultKey splits "path:subkey" the way op_vault.go's operator
// arguments do; a key with no colon has no subkey.
func splitVaultKey(key string) (path, subkey string) {
	if i := strings.LastIndex(key, ":"); i >= 0 {
		return key[:i], key[i+1:]
	}
	return key, ""
}

func extractVaultSubkey(secretMap map[string]interface{}, path, subkey string) (string, error) {
	if subkey == "" {
		if len(secretMap) == 1 {
			for _, v := range secretMap {
				if s, ok := v.(string); ok {
					return s, nil
				}
			}
		}
		return "", fmt.Errorf("remote/vault: secret %q has multiple keys, a subkey is required", path)
	}
	v, ok := secretMap[subkey]
	if !ok {
		return "", fmt.Errorf("remote/vault: secret %s:%s not found", path, subkey)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("remote/vault: secret %s:%s is not a string", path, subkey)
	}
	return s, nil
}

func isVaultNotFound(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := err.(*vaultkv.ErrNotFound); ok {
		return true
	}
	return strings.Contains(err.Error(), "not found") || strings.Contains(err.Error(), "404")
}
