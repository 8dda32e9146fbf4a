package prompts

import (
	"fmt"

	"github.com/erricrr/hf-togetherai-rpg/pkg/chat"
	"github.com/erricrr/hf-togetherai-rpg/pkg/state"
)

// NarratorSystemPrompt instructs the game master model.
const NarratorSystemPrompt = `You are an AI Game master. Your job is to write what happens next in a player's adventure game.

Instructions:
- You must only write 1-3 sentences in response.
- Always write in second person present tense. Ex. (You look north and see...)
- Don't let the player use items they don't have in their inventory.
- Do not break the fourth wall. Do not acknowledge that you are an AI.`

// worldInfoTemplate is filled with the world, kingdom, town, character and inventory JSON.
const worldInfoTemplate = `World: %s
Kingdom: %s
Town: %s
Your Character: %s
Inventory: %s`

// InventorySystemPrompt instructs the backend model to extract item changes from a narrative.
const InventorySystemPrompt = `You are an AI Game Assistant. Your job is to detect changes to a player's inventory based on the most recent story and game state.

If a player picks up, or gains an item add it to the inventory with a positive change_amount.
If a player loses an item remove it from their inventory with a negative change_amount.
Given a player name, inventory and story, return a list of json updates of the player's inventory in the following form.
Only take items that it's clear the player (you) lost.
Only give items that it's clear the player gained.
Don't make any other item updates.
Don't add items that were already added in the inventory.
If no items were changed return {"itemUpdates": []} and nothing else.

Response must be valid JSON:
{
  "itemUpdates": [
    {"name": <ITEM NAME>, "change_amount": <CHANGE AMOUNT>}
  ]
}`

// InventoryUpdatesCue closes the extraction conversation.
const InventoryUpdatesCue = "Inventory Updates"

// WorldInfo renders the descriptive state fields and inventory for the narrator.
func WorldInfo(gs *state.GameState) string {
	return fmt.Sprintf(worldInfoTemplate, gs.World, gs.Kingdom, gs.Town, gs.Character, gs.Inventory.JSON())
}

// BuildInventoryMessages builds the extraction conversation for the current inventory and narrative.
func BuildInventoryMessages(inv state.Inventory, narrative string) []chat.ChatMessage {
	return []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: InventorySystemPrompt},
		{Role: chat.ChatRoleUser, Content: "Current Inventory: " + inv.JSON()},
		{Role: chat.ChatRoleUser, Content: "Recent Story: " + narrative},
		{Role: chat.ChatRoleUser, Content: InventoryUpdatesCue},
	}
}
