// Package keys seals CLOB API credentials for the environment file.
package keys

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"copytrader/src/security"
)

// Encryptor encrypts the CLOB API secret and passphrase with
// EXCHANGE_CREDENTIALS_KEY and prints env-file lines, so the plaintext never
// has to live in .env.
type Encryptor struct {
	Secret     string
	Passphrase string

	Out io.Writer
}

func (e *Encryptor) Start() error {
	if e.Out == nil {
		e.Out = os.Stdout
	}
	if e.Secret == "" && e.Passphrase == "" {
		return errors.New("nothing to encrypt, pass --secret and/or --passphrase")
	}

	if e.Secret != "" {
		sealed, err := security.EncryptString(e.Secret)
		if err != nil {
			logrus.WithError(err).Error("Failed to encrypt API secret")
			return err
		}
		if _, err := fmt.Fprintf(e.Out, "CLOB_API_SECRET=%s\n", sealed); err != nil {
			return err
		}
	}

	if e.Passphrase != "" {
		sealed, err := security.EncryptString(e.Passphrase)
		if err != nil {
			logrus.WithError(err).Error("Failed to encrypt API passphrase")
			return err
		}
		if _, err := fmt.Fprintf(e.Out, "CLOB_API_PASSPHRASE=%s\n", sealed); err != nil {
			return err
		}
	}

	return nil
}
