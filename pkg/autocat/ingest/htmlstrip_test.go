package ingest

import "testing"

func TestStripHTMLPlainTextPassthrough(t *testing.T) {
	got := StripHTML("login   error\n on the  site")
	if got != "login error on the site" {
		t.Errorf("StripHTML = %q", got)
	}
}

func TestStripHTMLRemovesTags(t *testing.T) {
	got := StripHTML("<p>The <b>login</b> page is <i>broken</i>.</p>")
	if got != "The login page is broken ." {
		t.Errorf("StripHTML = %q", got)
	}
}

func TestStripHTMLTagsBecomeSpaces(t *testing.T) {
	// words separated only by tags must not fuse
	got := StripHTML("login<br/>error")
	if got != "login error" {
		t.Errorf("StripHTML = %q", got)
	}
}

func TestStripHTMLDropsScriptAndStyle(t *testing.T) {
	got := StripHTML("<style>.x{color:red}</style><p>slow page</p><script>alert(1)</script>")
	if got != "slow page" {
		t.Errorf("StripHTML = %q", got)
	}
}

func TestStripHTMLMalformed(t *testing.T) {
	got := StripHTML("login <b error")
	if got == "" {
		t.Error("Malformed markup should still yield the leading text")
	}
}
