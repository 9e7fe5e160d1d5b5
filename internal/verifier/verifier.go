// Package verifier checks encrypted amounts and their proofs before they
// are handed to the ledger. The ledger itself never inspects them.
package verifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// DefaultMaxBytes is the default size limit for ciphertexts and proofs.
const DefaultMaxBytes = 4096

// SignatureLength is the length of a secp256k1 signature in [R || S || V] format.
const SignatureLength = 65

var ErrRejected = errors.New("the encrypted amount was rejected")

var (
	ErrEmptyCiphertext    = fmt.Errorf("%w: the encrypted amount must not be empty", ErrRejected)
	ErrCiphertextTooLarge = fmt.Errorf("%w: the encrypted amount is too large", ErrRejected)
	ErrProofTooLarge      = fmt.Errorf("%w: the proof is too large", ErrRejected)
	ErrInvalidProof       = fmt.Errorf("%w: the proof is not a valid attestation", ErrRejected)
)

// Verifier validates an encrypted amount together with its proof.
type Verifier interface {
	Verify(ctx context.Context, encryptedAmount, proof []byte) error
}

// AcceptAll accepts every ciphertext that is not empty and within the size
// limits.
type AcceptAll struct {
	MaxBytes int // defaults to DefaultMaxBytes
}

func (v AcceptAll) Verify(_ context.Context, encryptedAmount, proof []byte) error {
	return checkSize(v.MaxBytes, encryptedAmount, proof)
}

// Attestation requires the proof to be a signature of the attester over the
// keccak256 hash of the encrypted amount.
type Attestation struct {
	Attester common.Address
	MaxBytes int // defaults to DefaultMaxBytes
}

func (v Attestation) Verify(_ context.Context, encryptedAmount, proof []byte) error {
	if err := checkSize(v.MaxBytes, encryptedAmount, proof); err != nil {
		return err
	}

	if len(proof) != SignatureLength {
		return ErrInvalidProof
	}

	// Accept both 0/1 and 27/28 recovery IDs
	sig := make([]byte, SignatureLength)
	copy(sig, proof)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	pub, err := ethcrypto.SigToPub(ethcrypto.Keccak256(encryptedAmount), sig)
	if err != nil {
		return ErrInvalidProof
	}

	if ethcrypto.PubkeyToAddress(*pub) != v.Attester {
		return ErrInvalidProof
	}

	return nil
}

func checkSize(maxBytes int, encryptedAmount, proof []byte) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	if len(encryptedAmount) == 0 {
		return ErrEmptyCiphertext
	}

	if len(encryptedAmount) > maxBytes {
		return ErrCiphertextTooLarge
	}

	if len(proof) > maxBytes {
		return ErrProofTooLarge
	}

	return nil
}
