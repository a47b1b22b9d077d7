package wavefront

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/achilleasa/lightbake/asset"
	"github.com/achilleasa/lightbake/types"
)

// Defaults for the lights synthesized from emissive materials.
const (
	defaultEmissiveRadius  float32 = 10
	defaultEmissiveFalloff float32 = 2
)

type material struct {
	name  string
	index int

	// Emissive color and scaler.
	ke       types.Vec3
	keScaler float32

	// Influence radius and falloff of the light synthesized for surfaces
	// using this material.
	keRadius  float32
	keFalloff float32
}

func newMaterial(name string, index int) *material {
	return &material{
		name:      name,
		index:     index,
		keScaler:  1,
		keRadius:  defaultEmissiveRadius,
		keFalloff: defaultEmissiveFalloff,
	}
}

// Returns true if surfaces using this material emit light.
func (m *material) emissive() bool {
	return m.ke.MaxComponent()*m.keScaler > 0
}

// Get the emitted radiance.
func (m *material) radiance() types.LinearColor {
	ke := m.ke.Mul(m.keScaler)
	return types.RGB(ke[0], ke[1], ke[2])
}

// Parse a material library. Statements other than the ones affecting
// emission are ignored.
func (r *sceneReader) parseMaterials(res *asset.Resource) error {
	r.logger.Infof(`parsing material library "%s"`, res.Path())

	var (
		cur     *material
		lineNum int
		err     error
	)
	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 || strings.HasPrefix(tokens[0], "#") {
			continue
		}

		if tokens[0] == "newmtl" {
			if len(tokens) != 2 {
				return r.emitError(res.Path(), lineNum, `%w: expected 1 argument for "newmtl"; got %d`, ErrSyntax, len(tokens)-1)
			}
			if _, exists := r.materials[tokens[1]]; exists {
				return r.emitError(res.Path(), lineNum, `%w: material "%s" already defined`, ErrSyntax, tokens[1])
			}
			cur = newMaterial(tokens[1], len(r.materialOrder))
			r.materials[cur.name] = cur
			r.materialOrder = append(r.materialOrder, cur)
			continue
		}

		if cur == nil {
			return r.emitError(res.Path(), lineNum, `%w: got "%s" without a "newmtl"`, ErrSyntax, tokens[0])
		}

		switch tokens[0] {
		case "include":
			if len(tokens) != 2 {
				return r.emitError(res.Path(), lineNum, `%w: expected 1 argument for "include"; got %d`, ErrSyntax, len(tokens)-1)
			}
			base, exists := r.materials[tokens[1]]
			if !exists {
				return r.emitError(res.Path(), lineNum, `%w: could not include "%s"`, ErrUnknownMaterial, tokens[1])
			}
			name, index := cur.name, cur.index
			*cur = *base
			cur.name, cur.index = name, index
		case "Ke":
			cur.ke, err = parseVec3(tokens)
		case "KeScaler":
			cur.keScaler, err = parseFloat32(tokens)
		case "Ke_radius":
			cur.keRadius, err = parseFloat32(tokens)
		case "Ke_falloff":
			cur.keFalloff, err = parseFloat32(tokens)
		default:
			r.logger.Debugf("%s:%d: ignoring material statement %q", res.Path(), lineNum, tokens[0])
		}
		if err != nil {
			return r.emitError(res.Path(), lineNum, "%w", err)
		}
	}

	if err = scanner.Err(); err != nil {
		return fmt.Errorf("wavefront reader: reading %s: %w", res.Path(), err)
	}
	return nil
}
