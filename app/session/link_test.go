package session

import "testing"

func TestSessionIDFromLink(t *testing.T) {
	cases := []struct {
		name    string
		link    string
		want    string
		wantErr bool
	}{
		{"plain link", "https://tube.example/?sessionId=abc-123", "abc-123", false},
		{"extra params", "https://tube.example/?foo=1&sessionId=abc-123", "abc-123", false},
		{"missing param", "https://tube.example/", "", true},
		{"empty param", "https://tube.example/?sessionId=", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SessionIDFromLink(tc.link)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("SessionIDFromLink(%q) = %q, want error", tc.link, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("SessionIDFromLink(%q): %v", tc.link, err)
			}
			if got != tc.want {
				t.Errorf("SessionIDFromLink(%q) = %q, want %q", tc.link, got, tc.want)
			}
		})
	}
}

func TestJoinLinkRewritesParam(t *testing.T) {
	link, err := JoinLink("https://tube.example/?sessionId=old", "new-id")
	if err != nil {
		t.Fatal(err)
	}
	got, err := SessionIDFromLink(link)
	if err != nil {
		t.Fatal(err)
	}
	if got != "new-id" {
		t.Errorf("round-tripped session id = %q, want new-id", got)
	}
}
