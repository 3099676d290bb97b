// Package serialization saves and loads graph checkpoints in the .gtn format.
//
// A checkpoint holds named graphs (structure and arc weights), named float64
// buffers such as optimizer state, and string metadata:
//
//	Format Structure:
//	  [64 bytes: fixed header]
//	    0x00 magic "GTNG"
//	    0x04 version (uint32 LE)
//	    0x08 flags (uint32 LE)
//	    0x10 header size (uint64 LE)
//	    0x18 data size (uint64 LE)
//	    0x20 SHA-256 of the JSON header followed by the data section
//	  [Header: JSON, describes graphs and buffers]
//	  [padding to 64 bytes]
//	  [Data: float64 LE arc weights and buffers]
//
// Example usage:
//
//	// Save trained transitions and the optimizer state
//	err := serialization.Save("asg.gtn", &serialization.Checkpoint{
//	    Graphs:  map[string]*graph.Graph{"transitions": transitions},
//	    Buffers: optimizer.StateDict(),
//	})
//
//	// Load them back
//	ckpt, err := serialization.Load("asg.gtn")
//	transitions := ckpt.Graphs["transitions"]
package serialization
