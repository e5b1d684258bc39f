package common

import "testing"

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "/maps/org/1/", "/maps/org/1/"},
		{"whitespace", "  https://yandex.ru/maps/org/1/  ", "https://yandex.ru/maps/org/1/"},
		{"trailing comma", "https://yandex.ru,", "https://yandex.ru"},
		{"markdown link", "[branch](https://yandex.ru/maps/org/1/)", "https://yandex.ru/maps/org/1/"},
		{"wrapped", "<https://yandex.ru>", "https://yandex.ru"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeURL(tt.in); got != tt.want {
				t.Errorf("SanitizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "https://yandex.ru", want: "https://yandex.ru"},
		{in: "https://yandex.ru/", want: "https://yandex.ru"},
		{in: "http://localhost:8080", want: "http://localhost:8080"},
		{in: "", wantErr: true},
		{in: "ftp://yandex.ru", wantErr: true},
		{in: "yandex.ru", wantErr: true},
		{in: "https://exa mple.com", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ValidateBaseURL(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateBaseURL(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ValidateBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFileComponent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Sushibox", "Sushibox"},
		{"Ростов-на-Дону", "Ростов-на-Дону"},
		{"Pizza Mia / Центр", "Pizza_Mia_Центр"},
		{"  ", "unnamed"},
		{"../etc", "etc"},
	}
	for _, tt := range tests {
		if got := FileComponent(tt.in); got != tt.want {
			t.Errorf("FileComponent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContentHash(t *testing.T) {
	a := ContentHash([]byte("<div>one</div>"))
	if a != ContentHash([]byte("<div>one</div>")) {
		t.Error("ContentHash() not stable")
	}
	if a == ContentHash([]byte("<div>two</div>")) {
		t.Error("ContentHash() collides on different input")
	}
	if len(a) != 64 {
		t.Errorf("ContentHash() length = %d, want 64", len(a))
	}
}
