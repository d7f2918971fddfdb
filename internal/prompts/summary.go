package prompts

import (
	"fmt"
	"strings"
)

// englishSummaryTemplate asks for a structured Markdown study document.
// The single format verb is the transcript text.
const englishSummaryTemplate = `You are an experienced technical writer and analyst. Turn the video transcript
below into a clear, well-organized summary document written in Markdown.

Before writing:
- The transcript comes from speech recognition. Fix obvious mis-hearings and
  homophones from context. Mark any reading you are unsure of with [Uncertain].
- Write formulas and algorithms in LaTeX ($$...$$) where it helps.

Use exactly these sections, in this order:

## 📝 Summary
One paragraph covering the topic, the purpose of the video, and its main findings.

## 🔑 Key Concepts and Keywords
A bulleted list. For each term: a short explanation and its importance (high/medium/low).

## ✨ Key Points
Several takeaways as complete sentences in a bulleted list.

## 📄 Detailed Analysis
Connect the main ideas logically. Explain the background, how it works, why it
matters, and give an example or intuition, pitched so a high-school student can
follow. Use ### subheadings if this section grows long. Short pseudocode or
formulas are welcome where they clarify.

## 💬 Notable Quotes
Two or three quotes from the transcript that capture the central ideas, as
Markdown blockquotes.

## 🧐 Critical Evaluation
Gaps, missing perspectives, weak arguments, or outright errors in the video, and
what would have made the explanation stronger.

## 🚀 Practical Lessons and Conclusion
What a viewer should do, remember, or think about after watching.

---

Transcript:
%s`

// japaneseSummaryTemplate is the Japanese counterpart of
// englishSummaryTemplate. Technical terms keep their English original in
// parentheses.
const japaneseSummaryTemplate = `あなたは経験豊富なテクニカルライター兼アナリストです。以下の動画の文字起こしを、
読みやすく構造化されたマークダウン形式の要約ドキュメントにまとめてください。

執筆前のルール：
- 文字起こしは音声認識によるものです。同音異義語や誤認識は文脈から修正してください。
  解釈に自信がない箇所には[不確か]と付けてください。
- 専門用語に英語の原語がある場合は括弧で併記してください（例：過学習（overfitting））。
- 数式やアルゴリズムは必要に応じてLaTeX（$$...$$）で示してください。

次の見出しをこの順番どおりに使ってください：

## 📝 要約
動画の主題・目的・主な結論を一段落で。

## 🔑 主要な概念とキーワード
箇条書きで、各用語の簡潔な説明と重要度（高/中/低）。

## ✨ 重要ポイント
動画から得られる要点を、完全な文の箇条書きで。

## 📄 詳細な分析
主要なアイデアを論理的につなぎ、背景・仕組み・理由・具体例を高校生にも分かるように
説明してください。長くなる場合は###の小見出しで区切ってください。

## 💬 注目すべき引用
中心的なアイデアを表す引用を2〜3個、マークダウンの引用（>）で。

## 🧐 批判的評価
議論の不足点、見落とされた視点、弱い論点、明らかな誤りと、説明を補強するために
含めるべきだった要素。

## 🚀 実用的な学びと結論
視聴後に何をすべきか、何を覚えておくべきか。

---

文字起こし：
%s`

// TranscriptSummaryPrompt returns the prompt for summarizing a full
// transcript. lang selects the output language: "ja" for Japanese,
// anything else for English.
func TranscriptSummaryPrompt(transcript, lang string) string {
	tmpl := englishSummaryTemplate
	if strings.EqualFold(lang, "ja") {
		tmpl = japaneseSummaryTemplate
	}
	return fmt.Sprintf(tmpl, transcript)
}
