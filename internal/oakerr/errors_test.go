package oakerr

import (
	"errors"
	"testing"
)

func TestIsMatchesKind(t *testing.T) {
	err := New(NoSuchTable, "no such table %q", "t")
	if !Is(err, NoSuchTable) {
		t.Fatal("Is() should report true for matching kind")
	}
	if Is(err, NoSuchCol) {
		t.Fatal("Is() should report false for a different kind")
	}
}

func TestIsFalseForPlainError(t *testing.T) {
	if Is(errors.New("boom"), NoSuchTable) {
		t.Fatal("Is() should report false for a non-*Error")
	}
}

func TestErrorUnwrapsToCategory(t *testing.T) {
	err := New(NotNullViolation, "column %q is NOT NULL", "id")
	if !errors.Is(err, ErrIntegrity) {
		t.Fatal("NotNullViolation should unwrap to ErrIntegrity")
	}
	if errors.Is(err, ErrType) {
		t.Fatal("NotNullViolation should not unwrap to ErrType")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(IoError, cause, "writing page %d", 7)
	if !errors.Is(err, cause) {
		t.Fatal("Wrap() should unwrap to the wrapped cause")
	}
	if !Is(err, IoError) {
		t.Fatal("Wrap(IoError) should still report its Kind via Is()")
	}
}

func TestErrorMessageFormat(t *testing.T) {
	err := New(DupTable, "table %q already exists", "people")
	want := "DupTable: table \"people\" already exists"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorMessageWithoutDetail(t *testing.T) {
	err := &Error{K: SyntaxError}
	if err.Error() != "SyntaxError" {
		t.Fatalf("Error() = %q, want bare kind string", err.Error())
	}
}

func TestUnknownKindUnwrapsToNil(t *testing.T) {
	err := New(Kind("NotARealKind"), "whatever")
	if err.Unwrap() != nil {
		t.Fatalf("Unwrap() for an unrecognized kind = %v, want nil", err.Unwrap())
	}
}

func TestTypeMismatchErrorRoundTrip(t *testing.T) {
	err := NewTypeMismatch("int", "string")
	if err.Expect != "int" || err.Actual != "string" {
		t.Fatalf("NewTypeMismatch() = %+v, want Expect=int Actual=string", err)
	}
	if !errors.Is(err, ErrType) {
		t.Fatal("TypeMismatchError should unwrap to ErrType")
	}
	var target *TypeMismatchError
	if !errors.As(err, &target) {
		t.Fatal("errors.As should recover the concrete *TypeMismatchError")
	}
}
