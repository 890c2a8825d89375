package render

import "fmt"

var maskStyles = map[string]string{
	"rounded":        "border-radius: 1rem;",
	"circle":         "border-radius: 50%;",
	"squircle":       "border-radius: 25%;",
	"heart":          "clip-path: url(#clip-heart);",
	"cloud":          "clip-path: url(#clip-cloud);",
	"star":           "clip-path: polygon(50% 0%, 61% 35%, 98% 35%, 68% 57%, 79% 91%, 50% 70%, 21% 91%, 32% 57%, 2% 35%, 39% 35%);",
	"hexagon":        "clip-path: polygon(25% 0%, 75% 0%, 100% 50%, 75% 100%, 25% 100%, 0% 50%);",
	"diamond":        "clip-path: polygon(50% 0%, 100% 50%, 50% 100%, 0% 50%);",
	"triangle":       "clip-path: polygon(50% 0%, 0% 100%, 100% 100%);",
	"pentagon":       "clip-path: polygon(50% 0%, 100% 38%, 82% 100%, 18% 100%, 0% 38%);",
	"octagon":        "clip-path: polygon(30% 0%, 70% 0%, 100% 30%, 100% 70%, 70% 100%, 30% 100%, 0% 70%, 0% 30%);",
	"blob_1":         "border-radius: 60% 40% 30% 70% / 60% 30% 70% 40%;",
	"blob_2":         "border-radius: 30% 70% 70% 30% / 30% 30% 70% 70%;",
	"arch_window":    "border-radius: 1000px 1000px 0 0;",
	"tear_drop":      "border-radius: 0 50% 50% 50%; transform: rotate(45deg);",
	"flower":         "clip-path: polygon(50% 0%, 61% 35%, 98% 35%, 68% 57%, 79% 91%, 50% 70%, 21% 91%, 32% 57%, 2% 35%, 39% 35%);",
	"splatter":       "clip-path: polygon(20% 0%, 80% 0%, 100% 20%, 100% 80%, 80% 100%, 20% 100%, 0% 80%, 0% 20%);",
	"cross":          "clip-path: polygon(30% 0, 70% 0, 70% 30%, 100% 30%, 100% 70%, 70% 70%, 70% 100%, 30% 100%, 30% 70%, 0 70%, 0 30%, 30% 30%);",
	"lightning":      "clip-path: polygon(40% 0, 60% 0, 40% 50%, 70% 50%, 30% 100%, 40% 60%, 10% 60%);",
	"cloud_fluffy":   "clip-path: polygon(25% 10%, 40% 5%, 60% 10%, 75% 5%, 90% 20%, 95% 40%, 85% 60%, 90% 80%, 70% 90%, 50% 85%, 30% 90%, 10% 80%, 15% 60%, 5% 40%, 10% 20%); border-radius: 50%;",
	"stamp_cut":      "mask-image: radial-gradient(circle, transparent 4px, black 5px); mask-size: 15px 15px; mask-repeat: round; mask-position: center; padding: 6px;",
	"puzzle_single":  "clip-path: polygon(20% 0, 80% 0, 80% 20%, 90% 20%, 90% 40%, 80% 40%, 80% 100%, 0 100%, 0 40%, 10% 40%, 10% 20%, 0 20%);",
	"shield":         "clip-path: polygon(50% 0, 100% 20%, 100% 80%, 50% 100%, 0 80%, 0 20%);",
	"butterfly":      "clip-path: polygon(20% 20%, 40% 30%, 50% 20%, 60% 30%, 80% 20%, 90% 40%, 80% 60%, 50% 70%, 20% 60%, 10% 40%);",
	"maple_leaf":     "clip-path: polygon(50% 0%, 60% 30%, 90% 20%, 70% 50%, 90% 80%, 50% 70%, 10% 80%, 30% 50%, 10% 20%, 40% 30%);",
	"sunburst":       "clip-path: polygon(50% 0%, 61% 35%, 98% 35%, 68% 57%, 79% 91%, 50% 70%, 21% 91%, 32% 57%, 2% 35%, 39% 35%);",
	"keyhole":        "clip-path: polygon(30% 0, 70% 0, 70% 60%, 90% 100%, 10% 100%, 30% 60%); border-radius: 50% 50% 0 0;",
	"parallelogram":  "clip-path: polygon(25% 0%, 100% 0%, 75% 100%, 0% 100%);",
	"trapezoid":      "clip-path: polygon(20% 0%, 80% 0%, 100% 100%, 0% 100%);",
	"ticket_cut":     "mask-image: radial-gradient(circle at 0 50%, transparent 20px, black 21px), radial-gradient(circle at 100% 50%, transparent 20px, black 21px); mask-composite: intersect;",
	"chat_bubble":    "border-radius: 20px 20px 20px 0;",
	"stamp_detailed": "mask-image: radial-gradient(circle, transparent 2px, black 3px); mask-size: 10px 10px; mask-repeat: round;",
}

// MaskStyle is the inline CSS that shapes the image for a mask. Unknown
// masks and "none" yield no style.
func MaskStyle(mask string, customRadius float64) string {
	if mask == "custom" {
		return fmt.Sprintf("border-radius: %spx;", num(customRadius))
	}
	return maskStyles[mask]
}
