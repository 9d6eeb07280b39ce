package schema

import (
	"strings"
	"testing"
)

const testSchema = `{
  "type": "object",
  "properties": {
    "name": { "type": "string", "minLength": 1 },
    "count": { "type": "integer" }
  },
  "required": ["name"]
}`

func TestValidateTOML(t *testing.T) {
	tests := []struct {
		name    string
		toml    string
		wantErr bool
	}{
		{"valid", "name = \"x\"\ncount = 3\n", false},
		{"missing required", "count = 3\n", true},
		{"wrong type", "name = \"x\"\ncount = \"three\"\n", true},
		{"empty string", "name = \"\"\n", true},
		{"extra keys allowed", "name = \"x\"\nother = true\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTOML([]byte(tt.toml), testSchema)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTOML error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateTOMLRejectsBadTOML(t *testing.T) {
	err := ValidateTOML([]byte("name = "), testSchema)
	if err == nil {
		t.Fatal("expected error for unparsable TOML")
	}
	if !strings.Contains(err.Error(), "not valid TOML") {
		t.Errorf("unexpected error text: %v", err)
	}
}

func TestValidateTOMLRejectsBadSchema(t *testing.T) {
	if err := ValidateTOML([]byte("name = \"x\"\n"), "{not a schema"); err == nil {
		t.Fatal("expected error for unparsable schema")
	}
}
