package httpclient_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/httpclient"
)

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	c := httpclient.New(httpclient.Config{})

	assert.Equal(t, httpclient.DefaultTimeout, c.Timeout)
	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, httpclient.DefaultMaxIdleConnsPerHost, tr.MaxIdleConnsPerHost)
	assert.Equal(t, httpclient.DefaultTimeout, tr.ResponseHeaderTimeout)
	assert.Nil(t, c.CheckRedirect)
}

func TestNew_Overrides(t *testing.T) {
	t.Parallel()

	errStop := errors.New("stop")
	c := httpclient.New(httpclient.Config{
		Timeout:       time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error { return errStop },
	})

	assert.Equal(t, time.Second, c.Timeout)
	require.NotNil(t, c.CheckRedirect)
	assert.ErrorIs(t, c.CheckRedirect(nil, nil), errStop)
}
