package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		code      int
		text      string
		wantName  string
		wantHref  string
		wantColor string
	}{
		{
			name:      "created order",
			code:      CreatedOrder,
			text:      "alice",
			wantName:  "Order sent by name alice has been registered",
			wantHref:  "/invoice",
			wantColor: "green",
		},
		{
			name:      "registered user",
			code:      CreatedUser,
			text:      "bob",
			wantName:  "The user bob has been registered",
			wantHref:  "/",
			wantColor: "green",
		},
		{
			name:      "unauthorized",
			code:      Unauthorized,
			text:      "mallory",
			wantName:  "User mallory is not authorized",
			wantHref:  "/login",
			wantColor: "red",
		},
		{
			name:      "unknown code is empty",
			code:      418,
			text:      "teapot",
			wantName:  "",
			wantHref:  "",
			wantColor: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ForText(tt.code, tt.text)
			assert.Equal(t, tt.wantName, got.Name)
			assert.Equal(t, tt.wantHref, got.Href)
			assert.Equal(t, tt.wantColor, got.Color)
		})
	}
}

func TestForStatus(t *testing.T) {
	t.Parallel()

	got := ForStatus(InternalServerError)
	assert.Equal(t, "An internal server error occurred", got.Name)
	assert.Equal(t, "red", got.Color)
}
