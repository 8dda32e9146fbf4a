package chat

import (
	"testing"

	"github.com/google/uuid"
)

func TestChatRequest_Validate(t *testing.T) {
	tests := []struct {
		name        string
		req         ChatRequest
		expectError bool
	}{
		{
			name: "valid request",
			req:  ChatRequest{SessionID: uuid.New(), Message: "look around"},
		},
		{
			name:        "missing session",
			req:         ChatRequest{Message: "look around"},
			expectError: true,
		},
		{
			name:        "empty message",
			req:         ChatRequest{SessionID: uuid.New(), Message: ""},
			expectError: true,
		},
		{
			name:        "whitespace message",
			req:         ChatRequest{SessionID: uuid.New(), Message: "  \n"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.expectError && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
