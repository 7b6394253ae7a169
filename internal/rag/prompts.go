package rag

import "strings"

const systemPromptJA = `あなたは提供された文書に基づいて質問に回答するアシスタントです。

以下のルールに従ってください：
1. 回答は必ず提供されたコンテキスト（参照文書）に基づいてください
2. コンテキストに情報がない場合は、「提供された文書にはその情報が含まれていません」と正直に伝えてください
3. 回答は日本語で、簡潔かつ正確に行ってください
4. 必要に応じて、参照した文書の情報を引用してください

## 参照文書
{context}
`

const systemPromptEN = `You are an assistant that answers questions based on the provided documents.

Follow these rules:
1. Always base your answers on the provided context (reference documents)
2. If the information is not in the context, honestly say "The provided documents do not contain that information"
3. Answer concisely and accurately
4. Quote from the reference documents when appropriate

## Reference Documents
{context}
`

// SystemPrompt renders the grounding prompt for the given language with the
// retrieved context embedded. Any language other than "en" falls back to
// Japanese.
func SystemPrompt(lang string, context string) string {
	tpl := systemPromptJA
	if strings.EqualFold(lang, "en") {
		tpl = systemPromptEN
	}
	return strings.ReplaceAll(tpl, "{context}", context)
}
