package auth

import "testing"

func TestHashPasswordAndCheck(t *testing.T) {
	plain := "ClaveSecreta123!"
	hash, err := HashPassword(plain)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == plain {
		t.Fatal("hash must not equal plaintext")
	}
	if !CheckPassword(hash, plain) {
		t.Fatal("CheckPassword should succeed for correct password")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("CheckPassword should fail for wrong password")
	}
	if CheckPassword("", plain) {
		t.Fatal("CheckPassword should fail for empty hash")
	}
}

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"12345678", true},
		{"ñandúñandú", true},
		{"1234567", false},
		{"", false},
	}
	for _, c := range cases {
		err := ValidatePassword(c.in)
		if (err == nil) != c.want {
			t.Fatalf("password=%q wantOk=%v gotErr=%v", c.in, c.want, err)
		}
	}
}
