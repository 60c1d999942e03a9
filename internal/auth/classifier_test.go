package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want CredentialKind
	}{
		{"jwt three segments", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ4In0.c2ln", CredentialJWT},
		{"pat prefix", "mem_pat_0123456789abcdef", CredentialPAT},
		{"cat prefix", "mem_cat_0123456789abcdef", CredentialCAT},
		{"opaque string", "some-random-key", CredentialCAT},
		{"two segments", "only.two", CredentialCAT},
		{"four segments", "a.b.c.d", CredentialCAT},
		{"empty segment", "a..c", CredentialCAT},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.raw))
		})
	}
}

// A PAT-prefixed secret that happens to contain two dots must classify as
// a PAT, never as a JWT.
func TestClassify_PATPrefixWinsOverDots(t *testing.T) {
	raw := PATPrefix + "aa.bb.cc"
	assert.Equal(t, CredentialPAT, Classify(raw))
}

func TestClassify_CATPrefixWithDots(t *testing.T) {
	raw := CATPrefix + "aa.bb.cc"
	assert.Equal(t, CredentialCAT, Classify(raw))
}
