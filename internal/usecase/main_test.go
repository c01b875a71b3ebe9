package usecase

import (
	"os"
	"testing"

	"github.com/user/coupon-service/pkg/metrics"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}
