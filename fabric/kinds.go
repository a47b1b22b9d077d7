package fabric

import (
	"fmt"
	"strings"

	"github.com/achilleasa/lightbake/types"
)

// The content kind carried by a channel.
type Kind uint8

const (
	KindScene Kind = iota
	KindTextureMapping
	KindVertexMapping
	KindVolumeSamples
	KindVolumeDebugOutput
	KindDominantShadow
	KindMeshAreaLightData
	KindDebugOutput
	KindPrecomputedVisibility
	numKinds
)

// Channel format versions.
const (
	SceneVersion                 uint32 = 0x00000013
	TextureMappingVersion        uint32 = 0x00000009
	VertexMappingVersion         uint32 = 0x00000009
	VolumeSamplesVersion         uint32 = 0x00000004
	VolumeDebugOutputVersion     uint32 = 0x00000002
	DominantShadowVersion        uint32 = 0x00000003
	MeshAreaLightDataVersion     uint32 = 0x00000002
	DebugOutputVersion           uint32 = 0x00000006
	PrecomputedVisibilityVersion uint32 = 0x00000003
)

// Channel file extensions.
const (
	SceneExtension                 = "scene"
	TextureMappingExtension        = "tmap"
	VertexMappingExtension         = "vmap"
	VolumeSamplesExtension         = "vsamples"
	VolumeDebugOutputExtension     = "vdebug"
	DominantShadowExtension        = "dshadow"
	MeshAreaLightDataExtension     = "mal"
	DebugOutputExtension           = "debug"
	PrecomputedVisibilityExtension = "vis"
)

// Well-known guids for channels that are not tied to a scene entity.
var (
	VolumeLightingGuid            = types.Guid{A: 0x0AB02D1F, B: 0x4F0D4C3A, C: 0x9B5F13E3, D: 0x4C1A1E01}
	VolumeLightingDebugOutputGuid = types.Guid{A: 0x0AB02D1F, B: 0x4F0D4C3A, C: 0x9B5F13E3, D: 0x4C1A1E02}
	VolumeDistanceFieldGuid       = types.Guid{A: 0x0AB02D1F, B: 0x4F0D4C3A, C: 0x9B5F13E3, D: 0x4C1A1E03}
	MeshAreaLightDataGuid         = types.Guid{A: 0x0AB02D1F, B: 0x4F0D4C3A, C: 0x9B5F13E3, D: 0x4C1A1E04}
	DebugOutputGuid               = types.Guid{A: 0x0AB02D1F, B: 0x4F0D4C3A, C: 0x9B5F13E3, D: 0x4C1A1E05}
)

type kindInfo struct {
	tag       string
	version   uint32
	extension string
	flags     ChannelFlags
}

var kindTable = [numKinds]kindInfo{
	KindScene:                 {"SCENE", SceneVersion, SceneExtension, Persistent | Compressible},
	KindTextureMapping:        {"TEXTUREMAPPING", TextureMappingVersion, TextureMappingExtension, Persistent},
	KindVertexMapping:         {"VERTEXMAPPING", VertexMappingVersion, VertexMappingExtension, Persistent},
	KindVolumeSamples:         {"VOLUMESAMPLES", VolumeSamplesVersion, VolumeSamplesExtension, Persistent},
	KindVolumeDebugOutput:     {"VOLUMEDEBUGOUTPUT", VolumeDebugOutputVersion, VolumeDebugOutputExtension, Ephemeral},
	KindDominantShadow:        {"DOMINANTSHADOW", DominantShadowVersion, DominantShadowExtension, Persistent},
	KindMeshAreaLightData:     {"MESHAREALIGHTDATA", MeshAreaLightDataVersion, MeshAreaLightDataExtension, Persistent},
	KindDebugOutput:           {"DEBUGOUTPUT", DebugOutputVersion, DebugOutputExtension, Ephemeral},
	KindPrecomputedVisibility: {"PRECOMPUTEDVISIBILITY", PrecomputedVisibilityVersion, PrecomputedVisibilityExtension, Persistent},
}

func (k Kind) info() kindInfo {
	if k >= numKinds {
		return kindInfo{tag: fmt.Sprintf("KIND%d", k)}
	}
	return kindTable[k]
}

// The upper-case tag used in channel names.
func (k Kind) String() string {
	return k.info().tag
}

// The format version for channels of this kind.
func (k Kind) Version() uint32 {
	return k.info().version
}

// The file extension for channels of this kind.
func (k Kind) Extension() string {
	return k.info().extension
}

// The flags used when opening channels of this kind.
func (k Kind) Flags() ChannelFlags {
	return k.info().flags
}

// Parse a kind from its tag. Matching is case-insensitive.
func ParseKind(tag string) (Kind, error) {
	for k := Kind(0); k < numKinds; k++ {
		if strings.EqualFold(kindTable[k].tag, tag) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, tag)
}

// Build the channel name for the content of the given kind that belongs to
// guid. Names have the format CHANNEL_<KIND>_<GUID>_<VERSION>.<EXT>.
func ChannelName(kind Kind, guid types.Guid) string {
	info := kind.info()
	return fmt.Sprintf("CHANNEL_%s_%s_%08X.%s", info.tag, guid, info.version, info.extension)
}

