package security

import "testing"

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "" || hash == "correct horse battery staple" {
		t.Error("hash should be non-empty and not the plaintext")
	}

	// Same password hashes to different values (random salt)
	hash2, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == hash2 {
		t.Error("two hashes of the same password should differ")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret1234")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{
			name:     "correct password",
			password: "secret1234",
			hash:     hash,
			want:     true,
		},
		{
			name:     "wrong password",
			password: "secret12345",
			hash:     hash,
			want:     false,
		},
		{
			name:     "empty password",
			password: "",
			hash:     hash,
			want:     false,
		},
		{
			name:     "malformed hash",
			password: "secret1234",
			hash:     "not-a-bcrypt-hash",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.password, tt.hash); got != tt.want {
				t.Errorf("CheckPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}
