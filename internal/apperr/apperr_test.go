package apperr

import (
	"net/http"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestFromUnwrapsThroughPkgErrors(t *testing.T) {
	err := pkgerrors.Wrap(NotFound.With("booking not found"), "settle")

	ae := From(err)
	assert.Equal(t, http.StatusNotFound, ae.Status)
	assert.Equal(t, "booking not found", ae.Message)
	assert.ErrorIs(t, err, NotFound)
}

func TestFromUnknownIsUpstream(t *testing.T) {
	cause := pkgerrors.New("connection reset")
	ae := From(cause)
	assert.Equal(t, http.StatusBadGateway, ae.Status)
	assert.ErrorIs(t, ae, cause)
	assert.NotContains(t, ae.Message, "connection reset")
}
