package errors

import (
	"testing"
)

func TestNewCode(t *testing.T) {
	validCodes := []string{
		"sdk.invalid_state",
		"binary.varint_overflow",
		"checksum.mismatch",
		"protocol.unexpected_signal",
		"column.type_mismatch",
	}

	for _, codeStr := range validCodes {
		code, err := NewCode(codeStr)
		if err != nil {
			t.Errorf("Expected valid code '%s' to succeed, got error: %v", codeStr, err)
		}
		if code.String() != codeStr {
			t.Errorf("Expected code string '%s', got '%s'", codeStr, code.String())
		}
	}

	invalidCodes := []string{
		"invalid",             // No dot
		"sdk.",                // Ends with dot
		".invalid_state",      // Starts with dot
		"Sdk.invalid_state",   // Uppercase
		"sdk.invalid-state",   // Hyphens not allowed
		"sdk.invalid_state.",  // Trailing dot
		"sdk..invalid_state",  // Double dot
		"error.invalid_state", // Contains "error"
		"err.invalid_state",   // Contains "err"
	}

	for _, codeStr := range invalidCodes {
		_, err := NewCode(codeStr)
		if err == nil {
			t.Errorf("Expected invalid code '%s' to fail, but it succeeded", codeStr)
		}
	}
}

func TestMustNewCode(t *testing.T) {
	code := MustNewCode("sdk.invalid_state")
	if code.String() != "sdk.invalid_state" {
		t.Errorf("Expected code 'sdk.invalid_state', got '%s'", code.String())
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected MustNewCode to panic with invalid code")
		}
	}()
	MustNewCode("invalid")
}

func TestCodePackageAndName(t *testing.T) {
	code := MustNewCode("sdk.invalid_state")

	if code.Package() != "sdk" {
		t.Errorf("Expected package 'sdk', got '%s'", code.Package())
	}

	if code.Name() != "invalid_state" {
		t.Errorf("Expected name 'invalid_state', got '%s'", code.Name())
	}
}

func TestCodeIsValid(t *testing.T) {
	validCode := MustNewCode("sdk.invalid_state")
	if !validCode.IsValid() {
		t.Error("Expected valid code to return true for IsValid()")
	}

	invalidCode := Code{value: "invalid"}
	if invalidCode.IsValid() {
		t.Error("Expected invalid code to return false for IsValid()")
	}
}

func TestCodeEquals(t *testing.T) {
	code1 := MustNewCode("sdk.invalid_state")
	code2 := MustNewCode("sdk.invalid_state")
	code3 := MustNewCode("binary.varint_overflow")

	if !code1.Equals(code2) {
		t.Error("Expected identical codes to be equal")
	}

	if code1.Equals(code3) {
		t.Error("Expected different codes to not be equal")
	}
}

func TestCommonCodes(t *testing.T) {
	commonCodes := []Code{
		CommonInternal,
		CommonNotFound,
		CommonValidation,
		CommonTimeout,
		CommonUnsupported,
		CommonInvalidInput,
	}

	for _, code := range commonCodes {
		if !code.IsValid() {
			t.Errorf("Common code '%s' is not valid", code.String())
		}

		if code.Package() != "common" {
			t.Errorf("Expected package 'common' for '%s', got '%s'", code.String(), code.Package())
		}
	}
}
