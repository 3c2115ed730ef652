package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/CliForge/contentsdk/pkg/auth/storage"
	"github.com/CliForge/contentsdk/pkg/auth/types"
)

func TestDeveloperTokenResolver_FlagTakesPrecedence(t *testing.T) {
	t.Setenv(DefaultDeveloperTokenEnv, "env-token")

	store := storage.NewMemoryStore(t.Name())
	_ = store.Write(context.Background(), &types.TokenInfo{AccessToken: "store-token"})
	t.Cleanup(func() { _ = store.Clear(context.Background()) })

	resolver := NewDeveloperTokenResolver(
		WithFlagToken("flag-token"),
		WithTokenStore(store),
		WithPromptFunc(func() (string, error) {
			return "prompt-token", nil
		}),
	)

	token, origin, err := resolver.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if token != "flag-token" {
		t.Errorf("Resolve() token = %v, want flag-token", token)
	}
	if origin != TokenOriginFlag {
		t.Errorf("Resolve() origin = %v, want %v", origin, TokenOriginFlag)
	}
}

func TestDeveloperTokenResolver_Precedence(t *testing.T) {
	tests := []struct {
		name       string
		env        string
		stored     *types.TokenInfo
		prompt     func() (string, error)
		wantToken  string
		wantOrigin TokenOrigin
		wantErr    bool
	}{
		{
			name:       "environment",
			env:        "env-token",
			stored:     &types.TokenInfo{AccessToken: "store-token"},
			wantToken:  "env-token",
			wantOrigin: TokenOriginEnv,
		},
		{
			name:       "store",
			stored:     &types.TokenInfo{AccessToken: "store-token"},
			prompt:     func() (string, error) { return "prompt-token", nil },
			wantToken:  "store-token",
			wantOrigin: TokenOriginStore,
		},
		{
			name:       "prompt",
			prompt:     func() (string, error) { return "prompt-token", nil },
			wantToken:  "prompt-token",
			wantOrigin: TokenOriginPrompt,
		},
		{
			name:       "prompt error",
			prompt:     func() (string, error) { return "", errors.New("no tty") },
			wantOrigin: TokenOriginNone,
			wantErr:    true,
		},
		{
			name:       "nothing found",
			wantOrigin: TokenOriginNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DEVELOPER_TOKEN", tt.env)

			store := storage.NewMemoryStore(t.Name())
			if tt.stored != nil {
				_ = store.Write(context.Background(), tt.stored)
			}
			t.Cleanup(func() { _ = store.Clear(context.Background()) })

			opts := []ResolverOption{
				WithEnvVar("TEST_DEVELOPER_TOKEN"),
				WithTokenStore(store),
			}
			if tt.prompt != nil {
				opts = append(opts, WithPromptFunc(tt.prompt))
			}

			token, origin, err := NewDeveloperTokenResolver(opts...).Resolve(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Resolve() error = %v, wantErr %v", err, tt.wantErr)
			}
			if token != tt.wantToken {
				t.Errorf("Resolve() token = %q, want %q", token, tt.wantToken)
			}
			if origin != tt.wantOrigin {
				t.Errorf("Resolve() origin = %v, want %v", origin, tt.wantOrigin)
			}
		})
	}
}
