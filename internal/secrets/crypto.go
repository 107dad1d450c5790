package secrets

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/chacha20"
)

const (
	// KeySize is the length of a file key in bytes.
	KeySize = chacha20.KeySize

	// IVSize is the length of a file IV in bytes (XChaCha20 nonce).
	IVSize = chacha20.NonceSizeX

	// SecretSize is the length of a marshaled Secret.
	SecretSize = KeySize + IVSize
)

// Secret is the per-file symmetric key and IV.
type Secret struct {
	Key [KeySize]byte
	IV  [IVSize]byte
}

// NewSecret generates a random file secret.
func NewSecret() (Secret, error) {
	var s Secret
	if _, err := io.ReadFull(rand.Reader, s.Key[:]); err != nil {
		return Secret{}, fmt.Errorf("failed to generate file key: %w", err)
	}
	if _, err := io.ReadFull(rand.Reader, s.IV[:]); err != nil {
		return Secret{}, fmt.Errorf("failed to generate file iv: %w", err)
	}
	return s, nil
}

// MarshalBinary encodes the secret as key || iv.
func (s Secret) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, SecretSize)
	out = append(out, s.Key[:]...)
	out = append(out, s.IV[:]...)
	return out, nil
}

// UnmarshalBinary decodes key || iv.
func (s *Secret) UnmarshalBinary(data []byte) error {
	if len(data) != SecretSize {
		return fmt.Errorf("invalid secret length: expected %d bytes, got %d bytes", SecretSize, len(data))
	}
	copy(s.Key[:], data[:KeySize])
	copy(s.IV[:], data[KeySize:])
	return nil
}

// String returns the hex form, handy for exporting a secret by hand.
func (s Secret) String() string {
	b, _ := s.MarshalBinary()
	return hex.EncodeToString(b)
}

func (s Secret) stream() (cipher.Stream, error) {
	c, err := chacha20.NewUnauthenticatedCipher(s.Key[:], s.IV[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return c, nil
}

// EncryptStream returns a reader yielding the ciphertext of r.
func EncryptStream(s Secret, r io.Reader) (io.Reader, error) {
	st, err := s.stream()
	if err != nil {
		return nil, err
	}
	return &cipher.StreamReader{S: st, R: r}, nil
}

// DecryptStream returns a reader yielding the plaintext of r.
// The cipher is symmetric, so this mirrors EncryptStream.
func DecryptStream(s Secret, r io.Reader) (io.Reader, error) {
	return EncryptStream(s, r)
}

// EncryptFile streams src through the cipher into dst, creating dst with 0600.
// dst must not exist yet; an existing file fails with an error matching
// os.ErrExist and is left untouched. A partially written dst is removed on
// failure.
func EncryptFile(s Secret, src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dst, err)
	}
	return encryptInto(s, in, out)
}

// EncryptFileTemp is EncryptFile into a new file created by os.CreateTemp in
// dir with pattern. It returns the path of the file it created.
func EncryptFileTemp(s Secret, src, dir, pattern string) (string, int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	n, err := encryptInto(s, in, out)
	if err != nil {
		return "", n, err
	}
	return out.Name(), n, nil
}

// encryptInto copies the ciphertext of in to out and closes out. out is
// removed if anything fails.
func encryptInto(s Secret, in io.Reader, out *os.File) (n int64, err error) {
	dst := out.Name()
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", dst, closeErr)
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	enc, err := EncryptStream(s, in)
	if err != nil {
		return 0, err
	}

	n, err = io.Copy(out, enc)
	if err != nil {
		return n, fmt.Errorf("failed to encrypt %s: %w", dst, err)
	}
	return n, nil
}

type decryptedStream struct {
	io.Reader
	io.Closer
}

// DecryptReadCloser wraps rc so reads yield plaintext and Close closes rc.
func DecryptReadCloser(s Secret, rc io.ReadCloser) (io.ReadCloser, error) {
	dec, err := DecryptStream(s, rc)
	if err != nil {
		return nil, err
	}
	return decryptedStream{Reader: dec, Closer: rc}, nil
}
