package dental

import "testing"

func TestNormalizeImageURL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://drive.google.com/file/d/1AbC_d-9/view?usp=sharing", "https://drive.google.com/uc?export=view&id=1AbC_d-9"},
		{"https://drive.google.com/open?id=XYZ123", "https://drive.google.com/uc?export=view&id=XYZ123"},
		{"https://drive.google.com/drive/folders/abc", "https://drive.google.com/drive/folders/abc"},
		{"https://example.com/rx.png", "https://example.com/rx.png"},
		{"  https://example.com/a.jpg ", "https://example.com/a.jpg"},
	}
	for _, c := range cases {
		if got := NormalizeImageURL(c.in); got != c.want {
			t.Errorf("NormalizeImageURL(%q) = %q want %q", c.in, got, c.want)
		}
	}
}

func TestIsValidImageURL(t *testing.T) {
	if !IsValidImageURL("https://example.com/x.png") {
		t.Fatal("https should be valid")
	}
	for _, bad := range []string{"", "ftp://x/y", "/relative.png", "https://"} {
		if IsValidImageURL(bad) {
			t.Errorf("%q should be invalid", bad)
		}
	}
}
