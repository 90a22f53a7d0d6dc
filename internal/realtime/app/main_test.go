//go:build !integration

package app

import (
	"os"
	"testing"

	"community_social_service/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.SetNewNop()
	os.Exit(m.Run())
}
