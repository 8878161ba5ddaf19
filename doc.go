// Package recall provides an embedded client for the recall retrieval
// engine: hybrid lexical/semantic search over meeting transcript fragments
// and voiceprint-based speaker identification.
//
// The client runs fully in-process against the in-memory store by default,
// or against Redis with search modules:
//
//	client, _ := recall.New(
//	    recall.WithDimensions(768, 256),
//	    recall.WithModelVersions("text-embed-v2", "voice-v1"),
//	)
//	defer client.Close()
//
//	_ = client.EmitFragment(ctx, recall.Fragment{
//	    ID: "frag-1", MeetingID: "standup-0412", SequenceIndex: 0,
//	    StartTime: 0, EndTime: 4.2,
//	    Text:      "let's review the action items",
//	    Embedding: vec, ModelVersion: "text-embed-v2",
//	})
//
//	results, _ := client.Search(ctx, "action items", &recall.SearchOptions{
//	    Embedding: queryVec,
//	})
//	match, _ := client.MatchSpeaker(ctx, voiceprint, "voice-v1", nil)
package recall
