package cep78

// Installation modes. Values are the u8 discriminants expected by the contract.

type OwnershipMode uint8

const (
	OwnershipMinter       OwnershipMode = 0
	OwnershipAssigned     OwnershipMode = 1
	OwnershipTransferable OwnershipMode = 2
)

type NFTKind uint8

const (
	KindPhysical NFTKind = 0
	KindDigital  NFTKind = 1
	KindVirtual  NFTKind = 2
)

type MetadataKind uint8

const (
	MetadataCEP78           MetadataKind = 0
	MetadataNFT721          MetadataKind = 1
	MetadataRaw             MetadataKind = 2
	MetadataCustomValidated MetadataKind = 3
)

type IdentifierMode uint8

const (
	IdentifierOrdinal IdentifierMode = 0
	IdentifierHash    IdentifierMode = 1
)

type MetadataMutability uint8

const (
	MetadataImmutable MetadataMutability = 0
	MetadataMutable   MetadataMutability = 1
)

type MintingMode uint8

const (
	MintingInstaller MintingMode = 0
	MintingPublic    MintingMode = 1
	MintingACL       MintingMode = 2
)

type HolderMode uint8

const (
	HolderAccounts  HolderMode = 0
	HolderContracts HolderMode = 1
	HolderMixed     HolderMode = 2
)

type WhitelistMode uint8

const (
	WhitelistUnlocked WhitelistMode = 0
	WhitelistLocked   WhitelistMode = 1
)

type BurnMode uint8

const (
	Burnable    BurnMode = 0
	NonBurnable BurnMode = 1
)

type OwnerReverseLookupMode uint8

const (
	ReverseLookupNone          OwnerReverseLookupMode = 0
	ReverseLookupComplete      OwnerReverseLookupMode = 1
	ReverseLookupTransfersOnly OwnerReverseLookupMode = 2
)

type NamedKeyConvention uint8

const (
	NamedKeyDerivedFromCollectionName NamedKeyConvention = 0
	NamedKeyV1_0Standard              NamedKeyConvention = 1
	NamedKeyV1_0Custom                NamedKeyConvention = 2
)

type EventsMode uint8

const (
	EventsNoEvents EventsMode = 0
	EventsCEP47    EventsMode = 1
	EventsCES      EventsMode = 2
)
