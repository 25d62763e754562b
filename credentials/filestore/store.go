// Package filestore keeps session secrets in a single encrypted file.
//
// The file holds a JSON envelope around a nacl/secretbox sealed JSON object of
// name -> value. The box key is derived with argon2id from a passphrase and a
// per-file salt; without a passphrase a random key is kept next to the file
// in "<path>.key". Writes are atomic (tmp, fsync, rename) and serialised across
// processes with an advisory lock on "<path>.lock".
//
// A file that can no longer be opened (key file lost, passphrase changed) fails
// reads, and is discarded by the next write so the store stays usable.
package filestore

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/medassist-client/credentials"
	apperrors "github.com/jrsteele09/medassist-client/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	envelopeVersion = 1
	saltSize        = 16
	keySize         = 32
	nonceSize       = 24

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

var _ credentials.Store = (*Store)(nil)

type envelope struct {
	Version int    `json:"version"`
	Salt    []byte `json:"salt"`
	Nonce   []byte `json:"nonce"`
	Box     []byte `json:"box"`
}

// Store is a credentials.Store backed by one encrypted file.
type Store struct {
	path       string
	passphrase string
	logger     zerolog.Logger

	mu      sync.Mutex
	keySalt []byte
	key     *[keySize]byte
}

type Option func(*Store)

// WithPassphrase derives the encryption key from passphrase instead of a key file.
func WithPassphrase(passphrase string) Option {
	return func(s *Store) {
		s.passphrase = passphrase
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store for path. The parent directory is created with 0700 if needed.
func New(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("[filestore New] path is required")
	}
	s := &Store{path: path, logger: log.Logger}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("[filestore New] failed to create directory: %w", err)
	}
	return s, nil
}

// Path returns the credential file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(_ context.Context, name credentials.Name) (string, error) {
	if name == "" {
		return "", apperrors.ErrEmptyCredentialName
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, _, err := s.load()
	if err != nil {
		return "", err
	}
	v, ok := values[name]
	if !ok {
		return "", credentials.ErrNotFound
	}
	return v, nil
}

func (s *Store) Set(_ context.Context, name credentials.Name, value string) error {
	if name == "" {
		return apperrors.ErrEmptyCredentialName
	}
	return s.update(func(values map[credentials.Name]string) bool {
		values[name] = value
		return true
	})
}

func (s *Store) Clear(_ context.Context, name credentials.Name) error {
	if name == "" {
		return apperrors.ErrEmptyCredentialName
	}
	return s.update(func(values map[credentials.Name]string) bool {
		if _, ok := values[name]; !ok {
			return false
		}
		delete(values, name)
		return true
	})
}

// update runs mutate under both locks and persists the result when mutate reports a change.
func (s *Store) update(mutate func(map[credentials.Name]string) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lockFile, err := os.OpenFile(s.path+".lock", os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("[filestore] open lock file: %w", err)
	}
	defer func() { _ = lockFile.Close() }()

	if err := flockLock(lockFile.Fd()); err != nil {
		return err
	}
	defer flockUnlock(lockFile.Fd()) //nolint:errcheck

	values, salt, err := s.load()
	discarded := false
	if err != nil {
		if !unreadable(err) {
			return err
		}
		if err := s.discard(err); err != nil {
			return err
		}
		values, salt, discarded = make(map[credentials.Name]string), nil, true
	}
	if !mutate(values) || (discarded && len(values) == 0) {
		return nil
	}
	if salt == nil {
		salt = make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return fmt.Errorf("[filestore] generate salt: %w", err)
		}
	}
	return s.save(values, salt)
}

func unreadable(err error) bool {
	return errors.Is(err, apperrors.ErrInvalidPassphrase) || errors.Is(err, apperrors.ErrMissingKeyFile)
}

// discard removes a credential file that cannot be decrypted with the current key.
func (s *Store) discard(cause error) error {
	s.logger.Warn().Err(cause).Str("path", s.path).Msg("discarding unreadable credential file")
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("[filestore] remove unreadable credential file: %w", err)
	}
	s.key, s.keySalt = nil, nil
	return nil
}

// load returns the decrypted values and the file's salt. A missing file yields
// an empty map and a nil salt.
func (s *Store) load() (map[credentials.Name]string, []byte, error) {
	values := make(map[credentials.Name]string)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil, nil
		}
		return nil, nil, fmt.Errorf("[filestore] read credential file: %w", err)
	}

	if info, statErr := os.Stat(s.path); statErr == nil && info.Mode().Perm()&0077 != 0 {
		s.logger.Warn().Str("path", s.path).Str("mode", fmt.Sprintf("%04o", info.Mode().Perm())).
			Msg("credential file permissions are too open, expected 0600")
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrCorruptCredentials, err)
	}
	if env.Version != envelopeVersion || len(env.Salt) != saltSize || len(env.Nonce) != nonceSize {
		return nil, nil, apperrors.ErrCorruptCredentials
	}

	key, err := s.deriveKey(env.Salt, false)
	if err != nil {
		return nil, nil, err
	}

	var nonce [nonceSize]byte
	copy(nonce[:], env.Nonce)
	plain, ok := secretbox.Open(nil, env.Box, &nonce, key)
	if !ok {
		return nil, nil, apperrors.ErrInvalidPassphrase
	}
	if err := json.Unmarshal(plain, &values); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrCorruptCredentials, err)
	}
	return values, env.Salt, nil
}

func (s *Store) save(values map[credentials.Name]string, salt []byte) error {
	key, err := s.deriveKey(salt, true)
	if err != nil {
		return err
	}

	plain, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("[filestore] marshal credentials: %w", err)
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("[filestore] generate nonce: %w", err)
	}

	data, err := json.Marshal(envelope{
		Version: envelopeVersion,
		Salt:    salt,
		Nonce:   nonce[:],
		Box:     secretbox.Seal(nil, plain, &nonce, key),
	})
	if err != nil {
		return fmt.Errorf("[filestore] marshal envelope: %w", err)
	}
	return writeAtomic(s.path, data)
}

// deriveKey returns the box key for salt, caching the last derivation.
// create allows a missing key file to be generated.
func (s *Store) deriveKey(salt []byte, create bool) (*[keySize]byte, error) {
	if s.key != nil && string(s.keySalt) == string(salt) {
		return s.key, nil
	}

	var secret []byte
	if s.passphrase != "" {
		secret = []byte(s.passphrase)
	} else {
		kf, err := s.keyFile(create)
		if err != nil {
			return nil, err
		}
		secret = kf
	}

	var key [keySize]byte
	copy(key[:], argon2.IDKey(secret, salt, argonTime, argonMemory, argonThreads, keySize))
	s.key = &key
	s.keySalt = append([]byte(nil), salt...)
	return s.key, nil
}

// keyFile loads the random key used when no passphrase is configured. A missing
// key is only generated when create is set; an existing credential file sealed
// with a lost key must not be silently paired with a new one.
func (s *Store) keyFile(create bool) ([]byte, error) {
	path := s.path + ".key"
	data, err := os.ReadFile(path)
	if err == nil {
		if len(data) != keySize {
			return nil, fmt.Errorf("%w: key file has unexpected length", apperrors.ErrCorruptCredentials)
		}
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("[filestore] read key file: %w", err)
	}
	if !create {
		return nil, apperrors.ErrMissingKeyFile
	}

	data = make([]byte, keySize)
	if _, err := rand.Read(data); err != nil {
		return nil, fmt.Errorf("[filestore] generate key: %w", err)
	}
	if err := writeAtomic(path, data); err != nil {
		return nil, err
	}
	s.logger.Debug().Str("path", path).Msg("created credential key file")
	return data, nil
}

// writeAtomic writes data to a temp file, fsyncs it and renames it over path.
func writeAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("[filestore] create temp file: %w", err)
	}

	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := f.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("[filestore] write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("[filestore] fsync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("[filestore] close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("[filestore] rename temp file: %w", err)
	}
	return nil
}
