// Package wavefront compiles wavefront object files, annotated with lighting
// directives, into lighting scenes.
package wavefront

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/lightbake/asset"
	"github.com/achilleasa/lightbake/log"
	"github.com/achilleasa/lightbake/scene"
	"github.com/achilleasa/lightbake/types"
)

// Options that control how objects are mapped.
type Options struct {
	// Name that guids are derived from. Defaults to the resource name.
	Name string

	// Texture mapping size for objects without a lightmap directive.
	LightmapSize int32

	// Use vertex mappings for objects without a lightmap directive.
	VertexMappings    bool
	SampleToAreaRatio float32
}

// Get the default reader options.
func DefaultOptions() Options {
	return Options{
		LightmapSize:      64,
		SampleToAreaRatio: 1,
	}
}

// A corner of a face as a set of zero-based indices. Missing uv and normal
// indices are -1.
type corner struct {
	v, vt, vn int
}

type face struct {
	corners [3]corner
	mat     *material
}

// The mapping requested for an object by a lightmap directive.
type mappingSpec struct {
	vertex            bool
	sizeX, sizeY      int32
	sampleToAreaRatio float32
}

type object struct {
	name    string
	faces   []face
	mapping *mappingSpec
}

type sceneReader struct {
	logger log.Logger
	opts   Options

	sc *scene.Scene

	materials     map[string]*material
	materialOrder []*material
	curMaterial   *material

	objects     []*object
	objectIndex map[string]*object
	curObject   *object

	vertexList []types.Vec3
	normalList []types.Vec3
	uvList     []types.Vec2

	// Named visibility tasks and their declaration order.
	visibility      map[string]*scene.VisibilityTask
	visibilityOrder []*scene.VisibilityTask

	// Object nominated by a debug_mapping directive.
	debugObject string

	// Provides context for errors raised inside included files.
	errStack []string
}

func newSceneReader(opts Options) *sceneReader {
	return &sceneReader{
		logger:      log.New("wavefront reader"),
		opts:        opts,
		materials:   make(map[string]*material),
		objectIndex: make(map[string]*object),
		visibility:  make(map[string]*scene.VisibilityTask),
	}
}

// Compile the scene stored in a local or remote wavefront file.
func ReadFile(location string, opts Options) (*scene.Scene, error) {
	if !strings.HasSuffix(location, ".obj") && !strings.HasSuffix(location, ".obj.gz") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, location)
	}

	res, err := asset.NewResource(location, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return Read(res, opts)
}

// Compile a scene from a wavefront resource. Material libraries and
// included object files are resolved relative to res.
func Read(res *asset.Resource, opts Options) (*scene.Scene, error) {
	if opts.Name == "" {
		opts.Name = strings.TrimSuffix(res.Name(), ".obj")
	}
	if opts.LightmapSize <= 0 {
		opts.LightmapSize = DefaultOptions().LightmapSize
	}
	if opts.SampleToAreaRatio <= 0 {
		opts.SampleToAreaRatio = DefaultOptions().SampleToAreaRatio
	}

	r := newSceneReader(opts)
	r.logger.Noticef(`parsing scene "%s" from "%s"`, opts.Name, res.Path())
	start := time.Now()

	r.sc = scene.New(types.GuidFromName(opts.Name))
	if err := r.parse(res); err != nil {
		return nil, err
	}

	sc, err := r.build()
	if err != nil {
		return nil, err
	}
	r.logger.Noticef("compiled scene %s in %d ms", sc.Guid, time.Since(start).Nanoseconds()/1e6)
	return sc, nil
}

// Wrap err with the file location and the include stack.
func (r *sceneReader) emitError(file string, line int, format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	if file != "" {
		err = fmt.Errorf("[%s: %d] %w", file, line, err)
	}
	if len(r.errStack) == 0 {
		return err
	}
	return fmt.Errorf("%w\n%s", err, strings.Join(r.errStack, "\n"))
}

func (r *sceneReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

func (r *sceneReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Get the object that faces are currently added to, creating a default one
// if the file does not name its objects.
func (r *sceneReader) currentObject() *object {
	if r.curObject == nil {
		r.startObject("default")
	}
	return r.curObject
}

// Select the object that following faces are added to. Reopened objects
// keep accumulating faces.
func (r *sceneReader) startObject(name string) {
	r.dropEmptyObject()
	if obj, exists := r.objectIndex[name]; exists {
		r.curObject = obj
		return
	}
	r.curObject = &object{name: name}
	r.objectIndex[name] = r.curObject
	r.objects = append(r.objects, r.curObject)
}

// Drop the current object if it has no faces. Such an object is always the
// most recently created one.
func (r *sceneReader) dropEmptyObject() {
	if r.curObject == nil || len(r.curObject.faces) != 0 {
		return
	}
	r.logger.Warningf(`dropping object "%s" as it contains no polygons`, r.curObject.name)
	delete(r.objectIndex, r.curObject.name)
	r.objects = r.objects[:len(r.objects)-1]
	r.curObject = nil
}

// Parse a wavefront object file and any files it references.
func (r *sceneReader) parse(res *asset.Resource) error {
	// Positive face indices are relative to the file that declares them.
	relVertexOffset := len(r.vertexList)
	relUvOffset := len(r.uvList)
	relNormalOffset := len(r.normalList)

	var lineNum int
	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 || strings.HasPrefix(tokens[0], "#") {
			continue
		}

		var err error
		switch tokens[0] {
		case "call", "mtllib":
			if len(tokens) != 2 {
				return r.emitError(res.Path(), lineNum, `%w: expected 1 argument for "%s"; got %d`, ErrSyntax, tokens[0], len(tokens)-1)
			}
			err = r.include(res, lineNum, tokens[0], tokens[1])
			if err != nil {
				return err
			}
		case "usemtl":
			if len(tokens) != 2 {
				return r.emitError(res.Path(), lineNum, `%w: expected 1 argument for "usemtl"; got %d`, ErrSyntax, len(tokens)-1)
			}
			mat, exists := r.materials[tokens[1]]
			if !exists {
				return r.emitError(res.Path(), lineNum, `%w: "%s"`, ErrUnknownMaterial, tokens[1])
			}
			r.curMaterial = mat
		case "v":
			var v types.Vec3
			if v, err = parseVec3(tokens); err == nil {
				r.vertexList = append(r.vertexList, v)
			}
		case "vn":
			var v types.Vec3
			if v, err = parseVec3(tokens); err == nil {
				r.normalList = append(r.normalList, v)
			}
		case "vt":
			var v types.Vec2
			if v, err = parseVec2(tokens); err == nil {
				r.uvList = append(r.uvList, v)
			}
		case "g", "o":
			if len(tokens) < 2 {
				return r.emitError(res.Path(), lineNum, `%w: expected object name for "%s"`, ErrSyntax, tokens[0])
			}
			r.startObject(tokens[1])
		case "f":
			var faces []face
			if faces, err = r.parseFace(tokens, relVertexOffset, relUvOffset, relNormalOffset); err == nil {
				obj := r.currentObject()
				obj.faces = append(obj.faces, faces...)
			}
		case "s", "l", "p":
		default:
			err = r.parseDirective(tokens)
		}

		if err != nil {
			return r.emitError(res.Path(), lineNum, "%w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("wavefront reader: reading %s: %w", res.Path(), err)
	}

	r.dropEmptyObject()
	return nil
}

// Parse an object file or material library referenced by res.
func (r *sceneReader) include(res *asset.Resource, lineNum int, stmt, location string) error {
	r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, stmt))

	incRes, err := asset.NewResource(location, res)
	if err != nil {
		return r.emitError(res.Path(), lineNum, "%w", err)
	}
	defer incRes.Close()

	if stmt == "call" {
		err = r.parse(incRes)
	} else {
		err = r.parseMaterials(incRes)
	}
	if err != nil {
		return err
	}

	r.popFrame()
	return nil
}

// Parse a face definition. Each argument has one of the formats v, v/vt,
// v//vn or v/vt/vn. Indices start from 1 and negative indices count back
// from the end of the list. Polygons are fan-triangulated.
func (r *sceneReader) parseFace(tokens []string, relVertexOffset, relUvOffset, relNormalOffset int) ([]face, error) {
	if len(tokens) < 4 {
		return nil, fmt.Errorf(`%w: expected at least 3 arguments for "f"; got %d`, ErrSyntax, len(tokens)-1)
	}

	corners := make([]corner, len(tokens)-1)
	expIndices := 0
	for arg := range corners {
		vTokens := strings.Split(tokens[arg+1], "/")
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return nil, fmt.Errorf("%w: expected each face argument to contain %d indices; arg %d contains %d", ErrSyntax, expIndices, arg, len(vTokens))
		}
		if vTokens[0] == "" {
			return nil, fmt.Errorf("%w: face argument %d does not include a vertex index", ErrSyntax, arg)
		}

		c := corner{vt: -1, vn: -1}
		var err error
		if c.v, err = selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset); err != nil {
			return nil, fmt.Errorf("vertex coord for face argument %d: %w", arg, err)
		}
		if expIndices > 1 && vTokens[1] != "" {
			if c.vt, err = selectFaceCoordIndex(vTokens[1], len(r.uvList), relUvOffset); err != nil {
				return nil, fmt.Errorf("tex coord for face argument %d: %w", arg, err)
			}
		}
		if expIndices > 2 && vTokens[2] != "" {
			if c.vn, err = selectFaceCoordIndex(vTokens[2], len(r.normalList), relNormalOffset); err != nil {
				return nil, fmt.Errorf("normal for face argument %d: %w", arg, err)
			}
		}
		corners[arg] = c
	}

	faces := make([]face, 0, len(corners)-2)
	for idx := 1; idx+1 < len(corners); idx++ {
		faces = append(faces, face{
			corners: [3]corner{corners[0], corners[idx], corners[idx+1]},
			mat:     r.curMaterial,
		})
	}
	return faces, nil
}

// Convert a 1-based or negative face index into an offset in a list of
// length listLen.
func selectFaceCoordIndex(token string, listLen, relOffset int) (int, error) {
	index, err := strconv.ParseInt(token, 10, 32)
	if err != nil {
		return -1, fmt.Errorf("%w: %w", ErrSyntax, err)
	}

	var offset int
	if index < 0 {
		offset = listLen + int(index)
	} else {
		offset = relOffset + int(index-1)
	}
	if offset < 0 || offset >= listLen {
		return -1, fmt.Errorf("%w: index %d", ErrIndexOutOfBounds, index)
	}
	return offset, nil
}

func parseFloat32(tokens []string) (float32, error) {
	if len(tokens) < 2 {
		return 0, fmt.Errorf(`%w: expected 1 argument for "%s"; got %d`, ErrSyntax, tokens[0], len(tokens)-1)
	}
	return parseFloat(tokens[1])
}

func parseFloat(token string) (float32, error) {
	val, err := strconv.ParseFloat(token, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	return float32(val), nil
}

// Parse the n floats following the statement name.
func parseFloats(tokens []string, n int) ([]float32, error) {
	if len(tokens) < n+1 {
		return nil, fmt.Errorf(`%w: expected %d arguments for "%s"; got %d`, ErrSyntax, n, tokens[0], len(tokens)-1)
	}
	out := make([]float32, n)
	for idx := range out {
		v, err := parseFloat(tokens[idx+1])
		if err != nil {
			return nil, err
		}
		out[idx] = v
	}
	return out, nil
}

func parseVec3(tokens []string) (types.Vec3, error) {
	f, err := parseFloats(tokens, 3)
	if err != nil {
		return types.Vec3{}, err
	}
	return types.XYZ(f[0], f[1], f[2]), nil
}

func parseVec2(tokens []string) (types.Vec2, error) {
	f, err := parseFloats(tokens, 2)
	if err != nil {
		return types.Vec2{}, err
	}
	return types.XY(f[0], f[1]), nil
}
