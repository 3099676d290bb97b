// Package tokenizer turns text into label sequences for target graphs.
//
// Two tokenizers are provided:
//   - CharTokenizer: a symbol table over single characters, as used by
//     character-level CTC and ASG models. It loads plain vocab.json maps and
//     the vocabulary of a HuggingFace tokenizer.json.
//   - TikToken: BPE encodings from tiktoken (cl100k_base, p50k_base,
//     r50k_base), for word-piece targets.
//
// Example usage:
//
//	tok, err := tokenizer.LoadVocab("vocab.json", tokenizer.WithWordDelimiter("|"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	target, err := tok.Encode("the cat")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	loss, err := criterion.CTCLoss(emissions, target, tok.Blank())
package tokenizer
