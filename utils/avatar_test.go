package utils

import "testing"

func TestAllowedAvatarExt(t *testing.T) {
	cases := []struct {
		name    string
		allowed bool
	}{
		{"selfie.jpg", true},
		{"selfie.JPG", true},
		{"selfie.jpeg", true},
		{"selfie.png", true},
		{"selfie.gif", true},
		{"selfie.webp", false},
		{"script.php", false},
		{"payload.png.exe", false},
		{"noextension", false},
	}
	for _, c := range cases {
		if got := AllowedAvatarExt(c.name); got != c.allowed {
			t.Errorf("AllowedAvatarExt(%q) = %v, want %v", c.name, got, c.allowed)
		}
	}
}

func TestSecureFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"selfie.png", "selfie.png"},
		{"../../etc/passwd.png", "passwd.png"},
		{"my photo (1).png", "my_photo__1_.png"},
		{"..hidden.png", "hidden.png"},
		{"résumé.png", "r_sum_.png"},
	}
	for _, c := range cases {
		if got := SecureFilename(c.in); got != c.want {
			t.Errorf("SecureFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
