package storage

import "testing"

func TestValidateContentType(t *testing.T) {
	cases := map[string]bool{
		"image/jpeg":               true,
		"IMAGE/PNG; charset=utf-8": true,
		"image/webp":               true,
		"image/svg+xml":            false,
		"application/pdf":          false,
		"":                         false,
	}
	for ct, ok := range cases {
		if err := validateContentType(ct); (err == nil) != ok {
			t.Errorf("validateContentType(%q) err=%v, want ok=%v", ct, err, ok)
		}
	}
}

func TestValidateFileSize(t *testing.T) {
	if err := validateFileSize(0, 100); err == nil {
		t.Errorf("empty file must be rejected")
	}
	if err := validateFileSize(101, 100); err == nil {
		t.Errorf("oversized file must be rejected")
	}
	if err := validateFileSize(100, 100); err != nil {
		t.Errorf("file at the limit must pass: %v", err)
	}
}

func TestObjectKey(t *testing.T) {
	got := ObjectKey("feedback-images/lead-1", "../../etc/Foto Carro.JPG", "abcd1234")
	if got != "feedback-images/lead-1/Foto Carro_abcd1234.jpg" {
		t.Fatalf("ObjectKey = %q", got)
	}
	if got := ObjectKey("x", "", "s"); got != "x/file_s" {
		t.Fatalf("ObjectKey with empty name = %q", got)
	}
}

func TestPublicURL(t *testing.T) {
	got := PublicURL("https://cdn.example.com/", "prospectai-feedback", "/feedback-images/a/b.png")
	if got != "https://cdn.example.com/prospectai-feedback/feedback-images/a/b.png" {
		t.Fatalf("PublicURL = %q", got)
	}
}
