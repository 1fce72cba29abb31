package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceType(t *testing.T) {
	assert.Equal(t, "_freetv-ctl._tcp", ServiceType)
}

func TestStartAndStop(t *testing.T) {
	adv, err := Start("test-station", 9999, nil)
	if err != nil {
		t.Skipf("mDNS responder unavailable in this environment: %v", err)
	}
	defer adv.Stop()
	assert.NotNil(t, adv)
}
