package core

//go:generate mockgen -destination=mocks/reader.go -package=mocks github.com/aretw0/tagvault/pkg/core Reader

// Reader is the contract of the low-level tag driver (radio, anticollision,
// authentication). Adhering to this interface keeps the engine independent of the
// transceiver chip and its bus. A nil error means the driver reported OK.
type Reader interface {
	// RequestIdle asks idle tags in the field to answer.
	RequestIdle() error

	// Anticollision isolates one tag and returns its UID.
	Anticollision() (UID, error)

	// SelectTag selects the tag with the given UID for subsequent commands.
	SelectTag(uid UID) error

	// Authenticate opens the sector containing block with the given key.
	Authenticate(keyType KeyType, block int, key Key, uid UID) error

	// ReadBlock reads one 16-byte block.
	ReadBlock(block int) (Block, error)

	// WriteBlock writes one 16-byte block.
	WriteBlock(block int, data Block) error

	// HaltTag puts the selected tag into the HALT state.
	HaltTag() error

	// StopAuthentication drops the active crypto context.
	StopAuthentication()
}

// Codec converts documents to and from the bytes stored in a bank.
type Codec interface {
	// Name identifies the codec in configuration (e.g. "json").
	Name() string

	// Encode serializes the document.
	Encode(doc Document) ([]byte, error)

	// Decode parses bytes produced by Encode. Malformed input must fail.
	Decode(data []byte) (Document, error)
}
