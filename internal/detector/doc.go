// Package detector turns the raw output tensor of a YOLOv7-style network into
// class-labelled boxes in original image pixels.
//
// The pipeline has three stages, each usable on its own:
//
//	Decoder     raw tensor -> normalised candidates (objectness + class gate)
//	Suppressor  candidates -> kept indices (greedy class-aware NMS)
//	Mapper      kept candidates -> DetectionRecord in original image pixels
//
// Postprocessor chains them with buffers sized once at construction, so a
// Process call does not allocate unless it has to report an overflow.
// None of the types are safe for concurrent use; use one instance per worker.
package detector
