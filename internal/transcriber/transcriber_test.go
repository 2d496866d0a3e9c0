package transcriber

import "testing"

func TestParseModel(t *testing.T) {
	cases := map[string]Model{
		"":                     ModelDefault,
		"default":              ModelDefault,
		"video":                ModelVideo,
		"phone_call":           ModelPhoneCall,
		" command_and_search ": ModelCommandAndSearch,
	}
	for in, want := range cases {
		got, err := ParseModel(in)
		if err != nil {
			t.Fatalf("ParseModel(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseModel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseModel_Unknown(t *testing.T) {
	if _, err := ParseModel("latest_long"); err == nil {
		t.Fatal("expected error for unsupported model")
	}
}
