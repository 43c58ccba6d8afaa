package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDownloadSignerGenerateAndParse(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("student-1", "individual/student-1.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	letterID, path, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "student-1", letterID)
	require.Equal(t, "individual/student-1.pdf", path)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestDownloadSignerExpired(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Millisecond*10)
	token, _, err := signer.Generate("student-1", "individual/student-1.pdf")
	require.NoError(t, err)
	time.Sleep(time.Millisecond * 20)

	_, _, _, err = signer.Parse(token, false)
	require.Error(t, err)

	letterID, path, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "student-1", letterID)
	require.Equal(t, "individual/student-1.pdf", path)
}

func TestDownloadSignerRejectsTamperedToken(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)
	token, _, err := signer.Generate("student-1", "individual/student-1.pdf")
	require.NoError(t, err)

	_, _, _, err = NewDownloadSigner("other", time.Hour).Parse(token, false)
	require.Error(t, err)
}

func TestLocalStoreSaveAndOpen(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("group/school-1.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	require.Equal(t, "group/school-1.pdf", name)

	file, err := store.Open(name)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck

	buf := make([]byte, 8)
	n, err := file.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4", string(buf[:n]))
}
