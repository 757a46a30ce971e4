package remote

import "testing"

type fakeBackend struct {
	target, key, value string
	calls              int
}

func (f *fakeBackend) Resolve(target, key string) (string, error) {
	f.calls++
	f.target, f.key = target, key
	return f.value, nil
}

func TestRegistryDispatchesByTargetName(t *testing.T) {
	r := NewRegistry()
	aws := &fakeBackend{value: "from-aws"}
	vault := &fakeBackend{value: "from-vault"}
	r.Register("prod-aws", aws)
	r.Register("prod-vault", vault)

	got, err := r.Resolve("prod-vault", "secret/creds:password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-vault" {
		t.Fatalf("expected dispatch to vault backend, got %q", got)
	}
	if aws.calls != 0 {
		t.Fatalf("expected aws backend untouched, got %d calls", aws.calls)
	}
}

func TestRegistryFallsBackWhenNoBackendRegistered(t *testing.T) {
	r := NewRegistry()
	fallback := &fakeBackend{value: "default"}
	r.SetFallback(fallback)

	got, err := r.Resolve("unknown-target", "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "default" {
		t.Fatalf("expected fallback value, got %q", got)
	}
}

func TestRegistryErrorsWithoutBackendOrFallback(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Resolve("nope", "k"); err == nil {
		t.Fatalf("expected error for unregistered target with no fallback")
	}
}

func TestSplitVaultKeySeparatesPathAndSubkey(t *testing.T) {
	path, subkey := splitVaultKey("secret/creds:password")
	if path != "secret/creds" || subkey != "password" {
		t.Fatalf("expected path=secret/creds subkey=password, got path=%q subkey=%q", path, subkey)
	}

	path, subkey = splitVaultKey("secret/creds")
	if path != "secret/creds" || subkey != "" {
		t.Fatalf("expected no subkey when key has no colon, got path=%q subkey=%q", path, subkey)
	}
}

func TestExtractVaultSubkeyRequiresSubkeyWhenAmbiguous(t *testing.T) {
	secretMap := map[string]interface{}{"user": "alice", "password": "hunter2"}
	if _, err := extractVaultSubkey(secretMap, "secret/creds", ""); err == nil {
		t.Fatalf("expected error when secret has multiple keys and no subkey given")
	}
	got, err := extractVaultSubkey(secretMap, "secret/creds", "password")
	if err != nil || got != "hunter2" {
		t.Fatalf("expected password=hunter2, got %q err=%v", got, err)
	}
}

func TestExtractVaultSubkeySingleValueWithoutSubkey(t *testing.T) {
	secretMap := map[string]interface{}{"value": "solo"}
	got, err := extractVaultSubkey(secretMap, "secret/simple", "")
	if err != nil || got != "solo" {
		t.Fatalf("expected solo, got %q err=%v", got, err)
	}
}
