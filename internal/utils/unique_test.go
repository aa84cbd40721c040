package utils

import "testing"

func TestUniqueNames_Reserve(t *testing.T) {
	names := NewUniqueNames()

	inputs := []string{"photo.jpg", "photo.jpg", "photo.jpg", "other.jpg", "photo_1.jpg"}
	expected := []string{"photo.jpg", "photo_1.jpg", "photo_2.jpg", "other.jpg", "photo_1_1.jpg"}

	for i, in := range inputs {
		if got := names.Reserve(in); got != expected[i] {
			t.Errorf("Reserve(%q) #%d = %q, expected %q", in, i, got, expected[i])
		}
	}
	if names.Len() != len(inputs) {
		t.Errorf("Len = %d, expected %d", names.Len(), len(inputs))
	}
}

func TestUniqueNames_CaseInsensitive(t *testing.T) {
	names := NewUniqueNames()
	names.Reserve("IMG_001.JPG")

	if got := names.Reserve("img_001.jpg"); got != "img_001_1.jpg" {
		t.Errorf("Reserve = %q, expected %q", got, "img_001_1.jpg")
	}
}

func TestUniqueNames_NoExtension(t *testing.T) {
	names := NewUniqueNames()
	names.Reserve("Kovács Anna")

	if got := names.Reserve("Kovács Anna"); got != "Kovács Anna_1" {
		t.Errorf("Reserve = %q, expected %q", got, "Kovács Anna_1")
	}
}

func TestUniqueNames_ZeroValue(t *testing.T) {
	var names UniqueNames
	if got := names.Reserve("a.jpg"); got != "a.jpg" {
		t.Errorf("Reserve = %q, expected %q", got, "a.jpg")
	}
	if got := names.Reserve("a.jpg"); got != "a_1.jpg" {
		t.Errorf("Reserve = %q, expected %q", got, "a_1.jpg")
	}
}

func TestUniqueNames_ReserveDir(t *testing.T) {
	u := NewUniqueNames()
	names := []string{"Dr. Kiss", "Dr. Kiss", "dr. kiss"}
	expected := []string{"Dr. Kiss", "Dr. Kiss_1", "dr. kiss_2"}
	for i, name := range names {
		if got := u.ReserveDir(name); got != expected[i] {
			t.Errorf("ReserveDir(%q) = %q, expected %q", name, got, expected[i])
		}
	}
}
