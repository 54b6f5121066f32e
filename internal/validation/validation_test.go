package validation

import "testing"

func TestIsEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"a@x.com", true},
		{"first.last@example.org", true},
		{"user-name@sub.domain.io", true},
		{"a@x.museum", false},
		{"no-at-sign.com", false},
		{"a@x", false},
		{"@x.com", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsEmail(tt.email); got != tt.want {
			t.Errorf("IsEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		phone   string
		wantErr bool
	}{
		{"0123456789", false},
		{"", false},
		{"012345678", true},
		{"01234567890", true},
		{"012-345-6789", true},
	}

	for _, tt := range tests {
		v := Violations{}
		Phone("phoneNumber", tt.phone, v)
		if got := !v.Empty(); got != tt.wantErr {
			t.Errorf("Phone(%q) violation = %v, want %v", tt.phone, got, tt.wantErr)
		}
	}
}

func TestRequiredAndFields(t *testing.T) {
	v := Violations{}
	Required("title", "  ", v)
	Required("name", "", v)
	Required("location", "Library", v)

	fields := v.Fields()
	if len(fields) != 2 || fields[0] != "name" || fields[1] != "title" {
		t.Errorf("unexpected fields: %v", fields)
	}
	if !v.Has(ReasonRequired) {
		t.Error("expected a required violation")
	}
	if v.Has(ReasonFormat) {
		t.Error("did not expect a format violation")
	}
}

func TestOneOf(t *testing.T) {
	v := Violations{}
	OneOf("itemType", "lost", []string{"lost", "found"}, v)
	if !v.Empty() {
		t.Errorf("expected no violation, got %v", v)
	}
	OneOf("itemType", "stolen", []string{"lost", "found"}, v)
	if v["itemType"] != ReasonChoice {
		t.Errorf("expected choice violation, got %v", v)
	}
}
