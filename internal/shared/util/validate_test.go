package util

import "testing"

func TestValidateName(t *testing.T) {
	valid := []string{"Jean Dupont", "Anne-Marie", "Éloïse Lefèvre"}
	for _, name := range valid {
		if !ValidateName(name) {
			t.Fatalf("expected %q to be valid", name)
		}
	}

	invalid := []string{"", "   ", "Jean123", "robert; drop table"}
	for _, name := range invalid {
		if ValidateName(name) {
			t.Fatalf("expected %q to be invalid", name)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	valid := []string{"TestPass123!", "Abcdef1?", `Str"ong9z`}
	for _, pw := range valid {
		if !ValidatePassword(pw) {
			t.Fatalf("expected %q to be valid", pw)
		}
	}

	invalid := []string{
		"alllower1!", // no upper
		"ALLUPPER1!", // no lower
		"NoDigits!!", // no digit
		"NoSpecial1", // no special
		"Ab1!",       // too short
	}
	for _, pw := range invalid {
		if ValidatePassword(pw) {
			t.Fatalf("expected %q to be invalid", pw)
		}
	}
}
