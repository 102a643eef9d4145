package nostr

import "strconv"

type Kind uint16

func (kind Kind) Num() uint16    { return uint16(kind) }
func (kind Kind) String() string { return "kind::" + kind.Name() + "<" + strconv.Itoa(int(kind)) + ">" }
func (kind Kind) Name() string {
	switch kind {
	case KindProfileMetadata:
		return "ProfileMetadata"
	case KindTextNote:
		return "TextNote"
	case KindFollowList:
		return "FollowList"
	case KindDeletion:
		return "Deletion"
	case KindFileMetadata:
		return "FileMetadata"
	case KindRelayListMetadata:
		return "RelayListMetadata"
	case KindUserServerList:
		return "UserServerList"
	case KindFileStorageServerList:
		return "FileStorageServerList"
	case KindClientAuthentication:
		return "ClientAuthentication"
	case KindBlobs:
		return "Blobs"
	case KindHTTPAuth:
		return "HTTPAuth"
	}
	return "unknown"
}

const (
	KindProfileMetadata   Kind = 0
	KindTextNote          Kind = 1
	KindFollowList        Kind = 3
	KindDeletion          Kind = 5
	KindFileMetadata      Kind = 1063
	KindRelayListMetadata Kind = 10002

	// KindUserServerList is the Blossom (BUD-03) list of media servers a user uploads to.
	KindUserServerList Kind = 10063

	// KindFileStorageServerList is the NIP-96 list of preferred file storage servers.
	KindFileStorageServerList Kind = 10096

	KindClientAuthentication Kind = 22242
	KindBlobs                Kind = 24242
	KindHTTPAuth             Kind = 27235
)

func (kind Kind) IsReplaceable() bool {
	return kind == 0 || kind == 3 || (10000 <= kind && kind < 20000)
}
