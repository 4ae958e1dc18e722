package vault

import (
	"context"
	"testing"
)

func TestDisabledClientReadsEnv(t *testing.T) {
	t.Setenv("BITGET_API_KEY", "key-from-env")
	t.Setenv("BITGET_SECRET_KEY", "secret-from-env")
	t.Setenv("BITGET_PASSPHRASE", "phrase-from-env")

	c, err := NewClient(Config{Enabled: false})
	if err != nil {
		t.Fatalf("disabled client should not fail: %v", err)
	}

	creds, err := c.Credentials(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if creds.APIKey != "key-from-env" || creds.SecretKey != "secret-from-env" || creds.Passphrase != "phrase-from-env" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
}

func TestDisabledClientEmptyEnv(t *testing.T) {
	t.Setenv("BITGET_API_KEY", "")
	t.Setenv("BITGET_SECRET_KEY", "")
	t.Setenv("BITGET_PASSPHRASE", "")

	c, _ := NewClient(Config{Enabled: false})
	creds, err := c.Credentials(context.Background())
	if err != nil {
		t.Fatalf("empty env is not an error here: %v", err)
	}
	if creds.APIKey != "" {
		t.Errorf("expected empty credentials, got %+v", creds)
	}
}

func TestStringField(t *testing.T) {
	data := map[string]interface{}{"api_key": "k", "count": 3}
	if got := stringField(data, "api_key"); got != "k" {
		t.Errorf("got %q", got)
	}
	if got := stringField(data, "count"); got != "" {
		t.Errorf("non-string should be empty, got %q", got)
	}
	if got := stringField(data, "missing"); got != "" {
		t.Errorf("missing should be empty, got %q", got)
	}
}
