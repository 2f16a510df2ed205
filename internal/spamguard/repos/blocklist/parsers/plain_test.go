package parsers

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/haukened/spamguard/internal/spamguard/common/log"
)

func TestParsePlainList_Basics(t *testing.T) {
	input := "\uFEFF# disposable list\n" +
		"0-mail.com\n" +
		"  Mailinator.COM  \n" +
		"\n" +
		"\t\n" +
		"   # indented comment\n" +
		"yopmail.com.\n" +
		"mailinator.com\n" +
		"trash#mail.com\n"

	now := time.Unix(1723550000, 0)
	got, err := ParsePlainList(bytes.NewBufferString(input), "test-source", log.NewNoopLogger(), now)
	if err != nil {
		t.Fatalf("ParsePlainList returned error: %v", err)
	}

	want := []string{"0-mail.com", "mailinator.com", "yopmail.com", "trash#mail.com"}
	if len(got) != len(want) {
		t.Fatalf("expected %d rules, got %d: %#v", len(want), len(got), got)
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("rule[%d].Name = %q, want %q", i, got[i].Name, name)
		}
		if got[i].Source != "test-source" {
			t.Errorf("rule[%d].Source = %q, want %q", i, got[i].Source, "test-source")
		}
		if !got[i].AddedAt.Equal(now) {
			t.Errorf("rule[%d].AddedAt = %v, want %v", i, got[i].AddedAt, now)
		}
	}
}

func TestParsePlainList_EmptyAndCommentsOnly(t *testing.T) {
	input := "\n# only comments\n   # another\n\n"
	got, err := ParsePlainList(bytes.NewBufferString(input), "s", log.NewNoopLogger(), time.Now())
	if err != nil {
		t.Fatalf("ParsePlainList returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected 0 rules, got %d", len(got))
	}
}

func TestParsePlainList_ConstructorErrorsAreSkipped(t *testing.T) {
	got, err := ParsePlainList(bytes.NewBufferString("a.com\nb.com\n"), "src", log.NewNoopLogger(), time.Time{})
	if err != nil {
		t.Fatalf("ParsePlainList returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected 0 rules due to zero time, got %d", len(got))
	}
}

func TestParsePlainList_ScannerError(t *testing.T) {
	big := bytes.Repeat([]byte{'a'}, maxLineBytes+10)
	got, err := ParsePlainList(bytes.NewReader(big), "src", log.NewNoopLogger(), time.Now())
	if err == nil {
		t.Fatalf("expected error from scanner, got nil")
	}
	if got != nil {
		t.Fatalf("expected nil result on error, got len=%d", len(got))
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestParsePlainList_ReaderError(t *testing.T) {
	if _, err := ParsePlainList(failingReader{}, "src", log.NewNoopLogger(), time.Now()); err == nil {
		t.Fatal("expected reader error to surface")
	}
}
