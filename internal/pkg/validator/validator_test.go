package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type saveKeyRequest struct {
	ServiceID string `json:"serviceId" validate:"required,service_id"`
	Key       string `json:"key" validate:"required,min=10"`
	Role      string `json:"role" validate:"omitempty,profile_role"`
}

func TestValidate(t *testing.T) {
	assert.Nil(t, Validate(&saveKeyRequest{ServiceID: "elevenlabs", Key: "sk-1234567890"}))

	errs := Validate(&saveKeyRequest{ServiceID: "Eleven Labs", Key: "short", Role: "root"})
	assert.Contains(t, errs["serviceId"], "Invalid service id")
	assert.Contains(t, errs["key"], "min: 10")
	assert.Contains(t, errs["role"], "standard or admin")

	errs = Validate(&saveKeyRequest{})
	assert.Equal(t, "This field is required", errs["serviceId"])
}

func TestValidateVar(t *testing.T) {
	assert.NoError(t, ValidateVar("openai", "service_id"))
	assert.Error(t, ValidateVar("-openai", "service_id"))
}
