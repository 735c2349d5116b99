package utils

import (
	"errors"
	"testing"

	pkgError "github.com/AzielCF/az-posts/pkg/error"
	"github.com/stretchr/testify/assert"
)

func TestGetPersistentServerIDOverride(t *testing.T) {
	assert.Equal(t, "node-1", GetPersistentServerID("node-1", t.TempDir()))
}

func TestGetPersistentServerIDStable(t *testing.T) {
	dir := t.TempDir()

	first := GetPersistentServerID("", dir)
	assert.NotEmpty(t, first)
	assert.Equal(t, first, GetPersistentServerID("", dir))
}

func TestPanicIfNeeded(t *testing.T) {
	assert.NotPanics(t, func() { PanicIfNeeded(nil) })

	assert.PanicsWithValue(t, pkgError.NotFoundError("gone"), func() {
		PanicIfNeeded(pkgError.NotFoundError("gone"))
	})
	assert.PanicsWithValue(t, pkgError.InternalServerError("boom"), func() {
		PanicIfNeeded(errors.New("boom"))
	})
}
