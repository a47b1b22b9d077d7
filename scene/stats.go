package scene

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Build a tabular representation of scene statistics.
func (sc *Scene) Stats() string {
	var lods, triangles int
	var indexData, vertexData, elementData []interface{}
	for _, mesh := range sc.Meshes {
		if sm, isStatic := mesh.(*StaticMesh); isStatic {
			lods += len(sm.LODs)
			for _, lod := range sm.LODs {
				triangles += lod.NumTriangles()
				indexData = append(indexData, lod.Indices)
				vertexData = append(vertexData, lod.Vertices)
				elementData = append(elementData, lod.Elements)
			}
		}
	}

	var vertexMappings, textureMappings, texels int
	for _, mapping := range sc.Mappings {
		switch m := mapping.(type) {
		case *VertexMapping:
			vertexMappings++
		case *TextureMapping:
			textureMappings++
			texels += int(m.SizeX) * int(m.SizeY)
		}
	}

	var cells, dominantLights int
	for _, task := range sc.VisibilityTasks {
		cells += len(task.Cells)
	}
	for _, light := range sc.Lights {
		if light.IsDominant() {
			dominantLights++
		}
	}

	geometry := append(append(append([]interface{}{}, indexData...), vertexData...), elementData...)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Asset Type", "Asset", "Count", "Size"})
	table.Append([]string{"Geometry", "---", fmt.Sprint(len(sc.Meshes)), fmtSize(geometry...)})
	table.Append([]string{"", "LODs", fmt.Sprint(lods), ""})
	table.Append([]string{"", "Triangles", fmt.Sprint(triangles), fmtSize(indexData...)})
	table.Append([]string{"", "Vertices", "", fmtSize(vertexData...)})
	table.Append([]string{"", "Elements", "", fmtSize(elementData...)})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Mappings", "---", fmt.Sprint(len(sc.Mappings)), ""})
	table.Append([]string{"", "Vertex", fmt.Sprint(vertexMappings), ""})
	table.Append([]string{"", "Texture", fmt.Sprint(textureMappings), ""})
	table.Append([]string{"", "Texels", fmt.Sprint(texels), ""})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Lights", "---", fmt.Sprint(len(sc.Lights)), fmtSize(sc.Lights)})
	table.Append([]string{"", "Dominant", fmt.Sprint(dominantLights), ""})
	table.Append([]string{"", "Mesh area", fmt.Sprint(len(sc.MeshAreaLights)), ""})
	table.Append([]string{" ", " ", " ", " "})
	table.Append([]string{"Visibility", "---", fmt.Sprint(len(sc.VisibilityTasks)), ""})
	table.Append([]string{"", "Cells", fmt.Sprint(cells), ""})
	table.SetFooter([]string{"Total", " ", " ", strings.TrimLeft(fmtSize(append(geometry, sc.Lights)...), " ")})

	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit. Slices of pointers are sized
// by the pointed-to element.
func fmtSize(items ...interface{}) string {
	var totalBytes float32 = 0.0
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		elem := t.Elem()
		if elem.Kind() == reflect.Ptr {
			elem = elem.Elem()
		}
		totalBytes += float32(int(elem.Size()) * v.Len())
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}
