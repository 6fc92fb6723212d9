package detection

import "image"

// candidate is a raw box before NMS, in image pixels.
type candidate struct {
	box     image.Rectangle
	score   float32
	classID int
}

// decodeV8 parses a YOLOv8 head laid out as [1, 4+classes, n]
// (channel-major). Box values are center x/y, width, height in model input
// pixels; sx/sy scale them back to the source image.
func decodeV8(data []float32, channels, n int, thresh, sx, sy float32) []candidate {
	var out []candidate
	for i := 0; i < n; i++ {
		maxScore := float32(0)
		maxClass := 0
		for c := 4; c < channels; c++ {
			if s := data[c*n+i]; s > maxScore {
				maxScore = s
				maxClass = c - 4
			}
		}
		if maxScore < thresh {
			continue
		}

		cx := data[0*n+i]
		cy := data[1*n+i]
		w := data[2*n+i]
		h := data[3*n+i]

		out = append(out, candidate{
			box: image.Rect(
				int((cx-w/2)*sx), int((cy-h/2)*sy),
				int((cx+w/2)*sx), int((cy+h/2)*sy),
			),
			score:   maxScore,
			classID: maxClass,
		})
	}
	return out
}

// decodeV10 parses a YOLOv10 end-to-end head laid out as [1, n, 6] with rows
// of x1, y1, x2, y2, score, class. The model already applied NMS.
func decodeV10(data []float32, n int, thresh, sx, sy float32) []candidate {
	var out []candidate
	for i := 0; i < n; i++ {
		row := data[i*6 : i*6+6]
		if row[4] < thresh {
			continue
		}
		out = append(out, candidate{
			box: image.Rect(
				int(row[0]*sx), int(row[1]*sy),
				int(row[2]*sx), int(row[3]*sy),
			),
			score:   row[4],
			classID: int(row[5]),
		})
	}
	return out
}

func (c candidate) detection() Detection {
	return Detection{
		Box:        c.box,
		Confidence: float64(c.score),
		ClassID:    c.classID,
		ClassName:  ClassName(c.classID),
	}
}
