package solana

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	bin "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
)

// Token Metadata instruction discriminators.
const (
	metadataIxCreateMasterEditionV3     = 17
	metadataIxVerifySizedCollectionItem = 30
	metadataIxCreateMetadataAccountV3   = 33
)

// metadataKeyV1 tags a Metadata account.
const metadataKeyV1 = 4

// ErrMetadataLayout is returned when account data does not decode as a metadata account.
var ErrMetadataLayout = errors.New("unexpected metadata account layout")

// Collection links a metadata account to a collection mint.
type Collection struct {
	Verified bool
	Key      PublicKey
}

// Metadata is the subset of a token-metadata account this service reads.
type Metadata struct {
	UpdateAuthority      PublicKey
	Mint                 PublicKey
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	PrimarySaleHappened  bool
	IsMutable            bool
	Collection           *Collection
}

// InCollection reports whether the metadata carries a verified link to collection.
func (m *Metadata) InCollection(collection PublicKey) bool {
	return m != nil && m.Collection != nil && m.Collection.Verified && m.Collection.Key == collection
}

// MetadataArgs are the on-chain fields written at creation.
type MetadataArgs struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Collection           *PublicKey
	IsMutable            bool
}

type creator struct {
	Address  PublicKey
	Verified bool
	Share    uint8
}

type uses struct {
	UseMethod uint8
	Remaining uint64
	Total     uint64
}

type collectionDetails struct {
	Kind uint8
	Size uint64
}

type dataV2 struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             *[]creator  `bin:"optional"`
	Collection           *Collection `bin:"optional"`
	Uses                 *uses       `bin:"optional"`
}

type createMetadataAccountV3 struct {
	Instruction       uint8
	Data              dataV2
	IsMutable         bool
	CollectionDetails *collectionDetails `bin:"optional"`
}

type createMasterEditionV3 struct {
	Instruction uint8
	MaxSupply   *uint64 `bin:"optional"`
}

// metadataAccount mirrors the leading fields of the on-chain account; trailing fields are ignored.
type metadataAccount struct {
	Key                  uint8
	UpdateAuthority      PublicKey
	Mint                 PublicKey
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             *[]creator `bin:"optional"`
	PrimarySaleHappened  bool
	IsMutable            bool
	EditionNonce         *uint8      `bin:"optional"`
	TokenStandard        *uint8      `bin:"optional"`
	Collection           *Collection `bin:"optional"`
}

func borshEncode(v interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NewCreateMetadataAccountV3Instruction creates the metadata account for mint.
func NewCreateMetadataAccountV3Instruction(mint, mintAuthority, payer, updateAuthority PublicKey, args MetadataArgs) (Instruction, error) {
	metadata, err := FindMetadataAddress(mint)
	if err != nil {
		return nil, err
	}

	payload := createMetadataAccountV3{
		Instruction: metadataIxCreateMetadataAccountV3,
		Data: dataV2{
			Name:                 args.Name,
			Symbol:               args.Symbol,
			URI:                  args.URI,
			SellerFeeBasisPoints: args.SellerFeeBasisPoints,
		},
		IsMutable: args.IsMutable,
	}
	if args.Collection != nil {
		payload.Data.Collection = &Collection{Key: *args.Collection}
	}
	data, err := borshEncode(payload)
	if err != nil {
		return nil, fmt.Errorf("encode create metadata: %w", err)
	}

	return solanago.NewInstruction(TokenMetadataProgramID, solanago.AccountMetaSlice{
		solanago.Meta(metadata).WRITE(),
		solanago.Meta(mint),
		solanago.Meta(mintAuthority).SIGNER(),
		solanago.Meta(payer).SIGNER().WRITE(),
		solanago.Meta(updateAuthority).SIGNER(),
		solanago.Meta(SystemProgramID),
		solanago.Meta(SysvarRentID),
	}, data), nil
}

// NewCreateMasterEditionV3Instruction caps the mint's supply at maxSupply prints.
func NewCreateMasterEditionV3Instruction(mint, updateAuthority, mintAuthority, payer PublicKey, maxSupply uint64) (Instruction, error) {
	metadata, err := FindMetadataAddress(mint)
	if err != nil {
		return nil, err
	}
	edition, err := FindMasterEditionAddress(mint)
	if err != nil {
		return nil, err
	}

	data, err := borshEncode(createMasterEditionV3{
		Instruction: metadataIxCreateMasterEditionV3,
		MaxSupply:   &maxSupply,
	})
	if err != nil {
		return nil, fmt.Errorf("encode create master edition: %w", err)
	}

	return solanago.NewInstruction(TokenMetadataProgramID, solanago.AccountMetaSlice{
		solanago.Meta(edition).WRITE(),
		solanago.Meta(mint).WRITE(),
		solanago.Meta(updateAuthority).SIGNER(),
		solanago.Meta(mintAuthority).SIGNER(),
		solanago.Meta(payer).SIGNER().WRITE(),
		solanago.Meta(metadata).WRITE(),
		solanago.Meta(TokenProgramID),
		solanago.Meta(SystemProgramID),
		solanago.Meta(SysvarRentID),
	}, data), nil
}

// NewVerifySizedCollectionItemInstruction marks mint as a verified member of collectionMint.
func NewVerifySizedCollectionItemInstruction(mint, collectionAuthority, payer, collectionMint PublicKey) (Instruction, error) {
	metadata, err := FindMetadataAddress(mint)
	if err != nil {
		return nil, err
	}
	collectionMetadata, err := FindMetadataAddress(collectionMint)
	if err != nil {
		return nil, err
	}
	collectionEdition, err := FindMasterEditionAddress(collectionMint)
	if err != nil {
		return nil, err
	}

	return solanago.NewInstruction(TokenMetadataProgramID, solanago.AccountMetaSlice{
		solanago.Meta(metadata).WRITE(),
		solanago.Meta(collectionAuthority).SIGNER(),
		solanago.Meta(payer).SIGNER().WRITE(),
		solanago.Meta(collectionMint),
		solanago.Meta(collectionMetadata).WRITE(),
		solanago.Meta(collectionEdition),
	}, []byte{metadataIxVerifySizedCollectionItem}), nil
}

// ParseMetadata decodes a token-metadata account.
func ParseMetadata(data []byte) (*Metadata, error) {
	if len(data) == 0 || data[0] != metadataKeyV1 {
		key := -1
		if len(data) > 0 {
			key = int(data[0])
		}
		return nil, fmt.Errorf("%w: key %d", ErrMetadataLayout, key)
	}

	var acct metadataAccount
	if err := bin.NewBorshDecoder(data).Decode(&acct); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataLayout, err)
	}

	return &Metadata{
		UpdateAuthority:      acct.UpdateAuthority,
		Mint:                 acct.Mint,
		Name:                 trimPadding(acct.Name),
		Symbol:               trimPadding(acct.Symbol),
		URI:                  trimPadding(acct.URI),
		SellerFeeBasisPoints: acct.SellerFeeBasisPoints,
		PrimarySaleHappened:  acct.PrimarySaleHappened,
		IsMutable:            acct.IsMutable,
		Collection:           acct.Collection,
	}, nil
}

// Encode serializes m in the on-chain account layout without creators or padding.
// Fakes use it to stand in for accounts created by the metadata program.
func (m *Metadata) Encode() ([]byte, error) {
	return borshEncode(metadataAccount{
		Key:                  metadataKeyV1,
		UpdateAuthority:      m.UpdateAuthority,
		Mint:                 m.Mint,
		Name:                 m.Name,
		Symbol:               m.Symbol,
		URI:                  m.URI,
		SellerFeeBasisPoints: m.SellerFeeBasisPoints,
		PrimarySaleHappened:  m.PrimarySaleHappened,
		IsMutable:            m.IsMutable,
		Collection:           m.Collection,
	})
}

func trimPadding(s string) string {
	return strings.TrimRight(s, "\x00")
}
