package reflection

import (
	"strings"
)

// Placeholders and their fallbacks.
const (
	NoReflectionsFound = "No reflections found."
	NoArtifactFound    = "No artifact found."
)

// SystemPromptTemplate is rendered with {artifact} and {reflections}.
const SystemPromptTemplate = `You are an expert assistant, and writer. You are tasked with reflecting on the following conversation between a user and an AI assistant.
You are also provided with an 'artifact' the user and assistant worked together on to write. Artifacts can be code, creative writing, emails, or any other form of written content.

<artifact>
{artifact}
</artifact>

You have also previously generated the following reflections about the user. Your reflections are broken down into two categories:
1. Style Guidelines: These are the style guidelines you have generated for the user. Style guidelines can be anything from writing style, to code style, to design style.
  They should be general, and apply to all the users work, including the conversation and artifact generated.
2. Content: These are general memories, facts, and insights you've generated about the user. These can be anything from the users interests, to their occupation, to their personal life.
  They should be general, and apply to all the users work, including the conversation and artifact generated.

<reflections>
{reflections}
</reflections>

Your job is to take all of the context and existing reflections and re-generate all. Use these guidelines when generating the new set of rules & reflections:

<system-guidelines>
- Ensure your rules are clear, remove duplicates, and combine rules if possible.
- Do NOT generate rules off of suspicions. Your rules should be based on facts from the conversation, and the artifact the user & assistant worked on.
  If you do not have enough information to generate a rule, do not generate one. Instead, return the existing rules if they are present.
- Do NOT generate rules about the user's intentions in this specific conversation. Rules should describe the user in general.
- Keep facts short and specific. One fact per list entry.
- If a new fact contradicts an existing one, keep only the newer fact.
</system-guidelines>

Finally, use the 'generate_reflections' tool to generate the new, full list of rules & reflections.`

// UserPromptTemplate is rendered with {conversation}.
const UserPromptTemplate = `Here is my conversation:

{conversation}`

// RenderSystemPrompt fills the system template. Substitution is a single pass,
// so placeholder text inside artifact or reflections is left as is.
func RenderSystemPrompt(artifact, reflections string) string {
	return strings.NewReplacer(
		"{artifact}", artifact,
		"{reflections}", reflections,
	).Replace(SystemPromptTemplate)
}

// RenderUserPrompt fills the user template.
func RenderUserPrompt(conversation string) string {
	return strings.NewReplacer("{conversation}", conversation).Replace(UserPromptTemplate)
}
