// Package puzzles holds the puzzle data model: catalog records grouped by
// difficulty bucket, and the verdicts produced when a record is verified.
//
// A catalog file is keyed by bucket name; each bucket is an ordered list of
// records with an id, a starting FEN and a solution line:
//
//	{
//	  "beginner": [
//	    {"id": "back-rank", "fen": "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", "solution": ["Ra8#"]}
//	  ]
//	}
package puzzles
