package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/anima-packer/engine/codec"
	"github.com/spaghettifunk/anima-packer/engine/pack"
	"github.com/spaghettifunk/anima-packer/engine/resources"
)

func newPeekCommand() *cobra.Command {
	var detail bool

	cmd := &cobra.Command{
		Use:         "peek PACK",
		Short:       "List the records of a pack",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			header, records, err := pack.ReadAll(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			headers := []string{"ID", "Kind", "Name", "Bytes"}
			aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignRight}
			if detail {
				headers = append(headers, "Detail")
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				row := []string{
					strconv.FormatUint(rec.ID, 10),
					rec.Kind.String(),
					rec.Name,
					strconv.Itoa(len(rec.Payload)),
				}
				if detail {
					row = append(row, describeRecord(rec))
				}
				rows = append(rows, row)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: version %d, %d records\n", args[0], header.Version, header.Count)
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable(headers, rows, aligns))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&detail, "detail", false, "Decode every payload and summarize it")
	return cmd
}

// describeRecord decodes a payload into a one-line summary. Decode errors
// are reported in place so one bad record does not hide the rest.
func describeRecord(rec codec.Record) string {
	summary, err := summarizePayload(rec)
	if err != nil {
		return "invalid: " + err.Error()
	}
	return summary
}

func summarizePayload(rec codec.Record) (string, error) {
	switch rec.Kind {
	case resources.AssetKindTexture:
		tex, err := codec.DecodeTexture(rec.Payload)
		if err != nil {
			return "", err
		}
		target := "2d"
		if tex.Target == resources.TextureTargetCubeMap {
			target = "hdr"
		}
		return fmt.Sprintf("%dx%d %dch %s", tex.Width, tex.Height, tex.Channels, target), nil
	case resources.AssetKindShader:
		src, err := codec.DecodeShader(rec.Payload)
		if err != nil {
			return "", err
		}
		stages := "vs+fs"
		if src.HasGeometry {
			stages += "+gs"
		}
		return fmt.Sprintf("%s, %d/%d/%d chars", stages, len(src.Vertex), len(src.Fragment), len(src.Geometry)), nil
	case resources.AssetKindComputeShader:
		src, err := codec.DecodeComputeShader(rec.Payload)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d chars", len(src)), nil
	case resources.AssetKindMaterial:
		slots, err := codec.DecodeMaterial(rec.Payload)
		if err != nil {
			return "", err
		}
		parts := make([]string, 0, len(slots))
		for _, s := range slots {
			parts = append(parts, fmt.Sprintf("%s=#%d", s.Type, s.TextureID))
		}
		return strings.Join(parts, " "), nil
	case resources.AssetKindModel:
		meshes, err := codec.DecodeModel(rec.Payload)
		if err != nil {
			return "", err
		}
		vertices, indices := 0, 0
		for _, m := range meshes {
			vertices += len(m.Vertices) / codec.FloatsPerVertex
			indices += len(m.Indices)
		}
		return fmt.Sprintf("%d meshes, %d vertices, %d indices", len(meshes), vertices, indices), nil
	case resources.AssetKindSkeletalModel:
		model, err := codec.DecodeSkeletalModel(rec.Payload)
		if err != nil {
			return "", err
		}
		vertices, bones := 0, 0
		for _, m := range model.Meshes {
			vertices += len(m.Vertices)
			if len(m.Bones) > bones {
				bones = len(m.Bones)
			}
		}
		return fmt.Sprintf("%d meshes, %d vertices, %d bones, %d sockets", len(model.Meshes), vertices, bones, len(model.Sockets)), nil
	case resources.AssetKindAnimation:
		anim, err := codec.DecodeAnimation(rec.Payload)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d bones, %d frames, %.3g ticks at %.3g/s", anim.BoneCount, len(anim.Timestamps), anim.Duration, anim.TicksPerSecond), nil
	case resources.AssetKindFont:
		font, err := codec.DecodeFont(rec.Payload)
		if err != nil {
			return "", err
		}
		if font.Type == resources.FontTypeSystem {
			return fmt.Sprintf("system, faces %s, %d bytes", strings.Join(font.Faces, ","), len(font.Data)), nil
		}
		return fmt.Sprintf("bitmap %s %dpt, %d glyphs, %d pages", font.Face, font.Size, len(font.Glyphs), len(font.Pages)), nil
	}
	return "", fmt.Errorf("no decoder for %s", rec.Kind)
}
