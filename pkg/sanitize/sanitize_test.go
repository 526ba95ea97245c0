package sanitize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"trims", "  hello \n", "hello"},
		{"strips tags", "<b>bold</b> move", "bold move"},
		{"drops script", "<script>alert(1)</script>hi", "hi"},
		{"decodes entities", "fish &amp; chips", "fish & chips"},
		{"only markup", "<br/>", ""},
		{"unclosed tag swallows text", "a<b>c", "ac"},
		{"literal entity is decoded", "write &amp;amp; here", "write &amp; here"},
		{"bare ampersand kept", "salt & pepper", "salt & pepper"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.in); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestOptional(t *testing.T) {
	if got := Optional(nil); got != nil {
		t.Fatalf("Optional(nil) = %v", *got)
	}
	blank := "  <p></p> "
	if got := Optional(&blank); got != nil {
		t.Fatalf("Optional(blank) = %q, want nil", *got)
	}
	bio := "<i>hi</i> there"
	if got := Optional(&bio); got == nil || *got != "hi there" {
		t.Fatalf("Optional(bio) = %v", got)
	}
}

func TestCompact(t *testing.T) {
	if got := Compact("a \n\t b   c"); got != "a b c" {
		t.Fatalf("Compact = %q", got)
	}
}
