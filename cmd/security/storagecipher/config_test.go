package storagecipher

import (
	"testing"
)

func TestLoadConfigFromEnv(t *testing.T) {
	cases := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "missing", value: "", wantErr: true},
		{name: "blank", value: "   ", wantErr: true},
		{name: "short", value: "fifteen-bytes!!", wantErr: true},
		{name: "ok", value: "  sixteen-bytes!!!  ", wantErr: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(MasterKeyEnv, tc.value)

			cfg, err := LoadConfigFromEnv()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadConfigFromEnv error: %v", err)
			}
			if string(cfg.MasterKey) != "sixteen-bytes!!!" {
				t.Fatalf("master key not trimmed: %q", cfg.MasterKey)
			}
		})
	}
}
